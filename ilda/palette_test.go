package ilda

import (
	"errors"
	"sync"
	"testing"
)

func TestDefaultColorRange(t *testing.T) {
	for i := 0; i < DefaultPaletteSize; i++ {
		if _, err := DefaultColor(i); err != nil {
			t.Fatalf("index %d: %v", i, err)
		}
	}
	for _, i := range []int{-1, 64, 255} {
		if _, err := DefaultColor(i); !errors.Is(err, ErrPaletteIndex) {
			t.Fatalf("index %d: expected ErrPaletteIndex, got %v", i, err)
		}
	}
	first, _ := DefaultColor(0)
	last, _ := DefaultColor(63)
	if first != (Color{255, 0, 0}) || last != (Color{255, 32, 32}) {
		t.Fatalf("unexpected endpoints %v %v", first, last)
	}
}

func TestDefaultPaletteIsImmutable(t *testing.T) {
	p := DefaultPalette()
	p[0] = Color{1, 2, 3}
	if c, _ := DefaultColor(0); c != (Color{255, 0, 0}) {
		t.Fatalf("default palette changed through a copy: %v", c)
	}
	q := DefaultPalette()
	if q[0] != (Color{255, 0, 0}) {
		t.Fatalf("fresh copy sees mutation: %v", q[0])
	}
}

func TestDefaultPaletteConcurrentReads(t *testing.T) {
	want := DefaultPalette()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < DefaultPaletteSize; i++ {
				c, err := DefaultColor(i)
				if err != nil || c != want[i] {
					errs <- errors.New("mismatch")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestPaletteNearest(t *testing.T) {
	p := DefaultPalette()
	if got := p.Nearest(Color{0, 0, 255}); got != 40 {
		t.Fatalf("pure blue -> %d", got)
	}
	if got := p.Nearest(Color{250, 250, 250}); got != 56 {
		t.Fatalf("near white -> %d", got)
	}
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#0a10ff")
	if err != nil || c != (Color{10, 16, 255}) {
		t.Fatalf("got %v, %v", c, err)
	}
	for _, bad := range []string{"", "0a10ff", "#0a10f", "#zz10ff"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
	p, err := ParsePalette([]string{"#000000", "#ffffff"})
	if err != nil || len(p) != 2 || p[1] != (Color{255, 255, 255}) {
		t.Fatalf("ParsePalette: %v %v", p, err)
	}
}
