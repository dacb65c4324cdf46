//go:build !linux

package copier

func adviseSequential(src Source) error {
	return nil
}
