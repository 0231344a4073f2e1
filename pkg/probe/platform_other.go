//go:build !linux && !windows && !darwin

package probe

func platformReaders() []Reader {
	return []Reader{
		NewDistatusReader(),
	}
}
