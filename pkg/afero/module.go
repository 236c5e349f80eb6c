package afero

import (
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

var fs = NewOsFs()

// Module makes available both the standard spf13 afero.Fs and this
// package's Fs alias backed by the host OS filesystem.
var Module fx.Option = fx.Provide(
	func() Fs { return fs },
	func() afero.Fs { return fs },
)
