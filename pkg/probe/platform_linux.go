//go:build linux

package probe

// platformReaders lists the readers applicable on Linux, most trusted
// first: the kernel power-supply class, then the library fallback.
func platformReaders() []Reader {
	return []Reader{
		NewSysfsReader(),
		NewDistatusReader(),
	}
}
