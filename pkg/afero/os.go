package afero

import (
	"github.com/spf13/afero"
)

type OsFs struct {
	*afero.OsFs
}

var _ Fs = (*OsFs)(nil)
var _ afero.Fs = (*OsFs)(nil)

func NewOsFs() Fs {
	return &OsFs{
		OsFs: afero.NewOsFs().(*afero.OsFs),
	}
}
