//go:build unix

package fitalloc

import "golang.org/x/sys/unix"

func mmapRegion(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

func munmapRegion(buf []byte) error {
	return unix.Munmap(buf)
}
