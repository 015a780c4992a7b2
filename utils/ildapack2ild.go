package utils

// RunILDAPACK2ILD extracts all streams from a .ildapack into the given output directory.
// It preserves the entry names stored in the pack.
func RunILDAPACK2ILD(inPackPath, outDir string) error {
	return UnpackToDir(inPackPath, outDir)
}
