//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/ilda/go/api"
	"github.com/voxelsplace/ilda/go/ilda"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	uint8arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(uint8arr, b)
	return uint8arr
}

// ild2glb(bytes, scale?) -> Uint8Array | error string
func ild2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing ild bytes")
	}
	scale := float32(1)
	if len(args) > 1 && args[1].Type() == js.TypeNumber {
		scale = float32(args[1].Float())
	}
	out, err := api.ILDToGLB(bytesFromJS(args[0]), scale, ilda.WithLenientPalette())
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func ildInfo(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing ild bytes")
	}
	sum, err := api.Summarize(bytesFromJS(args[0]), ilda.WithLenientPalette())
	if err != nil {
		return js.ValueOf(err.Error())
	}
	frames := make([]any, len(sum.Frames))
	for i, f := range sum.Frames {
		frames[i] = map[string]any{
			"name":        f.Name,
			"company":     f.Company,
			"format":      int(f.Format),
			"number":      int(f.Number),
			"totalFrames": int(f.TotalFrames),
			"projector":   int(f.Projector),
			"points":      f.Points,
			"lit":         f.Lit,
		}
	}
	return js.ValueOf(map[string]any{
		"frames":       frames,
		"palettes":     sum.Palettes,
		"uniqueFrames": sum.UniqueFrames,
		"bytes":        sum.Bytes,
	})
}

func packIlds(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing files object")
	}
	filesObj := args[0]
	files := map[string][]byte{}
	keys := js.Global().Get("Object").Call("keys", filesObj)
	for i := 0; i < keys.Length(); i++ {
		k := keys.Index(i).String()
		files[k] = bytesFromJS(filesObj.Get(k))
	}
	out, err := api.PackILDs(files, ilda.LayoutSections, ilda.PackCompZstd)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func unpackIldapack(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing pack bytes")
	}
	files, err := api.UnpackILDAPACKToMemory(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	// return an object mapping names->Uint8Array
	result := js.Global().Get("Object").New()
	for name, b := range files {
		result.Set(name, bytesToJS(b))
	}
	return result
}

func main() {
	js.Global().Set("ild2glb", js.FuncOf(ild2glb))
	js.Global().Set("ildInfo", js.FuncOf(ildInfo))
	js.Global().Set("packIlds", js.FuncOf(packIlds))
	js.Global().Set("unpackIldapack", js.FuncOf(unpackIldapack))
	select {}
}
