//go:build windows

package probe

// platformReaders lists the readers applicable on Windows: the battery
// WMI classes, the powercfg battery report for static data, then the
// library fallback.
func platformReaders() []Reader {
	return []Reader{
		NewWMIReader(),
		NewPowercfgReader(),
		NewDistatusReader(),
	}
}
