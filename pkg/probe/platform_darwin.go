//go:build darwin

package probe

// platformReaders lists the readers applicable on macOS: the smart
// battery registry entry, the pmset report, then the library fallback.
func platformReaders() []Reader {
	return []Reader{
		NewIoregReader(),
		NewPmsetReader(),
		NewDistatusReader(),
	}
}
