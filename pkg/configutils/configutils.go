package configutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// ImportKey is the config key naming other config files to merge in before
// the file that declares them.
var ImportKey = "imports"

// ResolveAndMergeFile reads the given config file, resolves its import chain
// and merges everything into v, imports first so the importing file wins.
func ResolveAndMergeFile(v *viper.Viper, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		return errors.New("configuration file has no extension")
	}
	supported := false
	for _, e := range viper.SupportedExts {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported configuration file extension: .%s", ext)
	}

	v.SetConfigType(ext)
	v.SetConfigFile(filePath)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	r := importResolver{visited: map[string]struct{}{}}
	if err := r.collect(v); err != nil {
		return fmt.Errorf("could not resolve configuration imports: %v", err)
	}

	// The root file merges last so its values override everything it imports.
	for _, p := range append(r.ordered, v.ConfigFileUsed()) {
		if err := mergeConfigFile(v, p); err != nil {
			return fmt.Errorf("merging config %s: %w", p, err)
		}
	}
	return nil
}

// importResolver walks the import graph depth-first. visited is filled
// pre-order to break cycles; ordered is filled post-order so children merge
// before their importer.
type importResolver struct {
	visited map[string]struct{}
	ordered []string
}

func (r *importResolver) collect(v *viper.Viper) error {
	for _, imp := range v.GetStringSlice(ImportKey) {
		if imp == "" {
			continue
		}

		path := imp
		if !filepath.IsAbs(path) {
			// relative imports resolve against the importing file
			path = filepath.Join(filepath.Dir(v.ConfigFileUsed()), path)
		}
		path = filepath.Clean(path)

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return err
		}
		if _, seen := r.visited[path]; seen {
			continue
		}
		r.visited[path] = struct{}{}

		child := viper.New()
		child.SetConfigFile(path)
		if err := child.ReadInConfig(); err != nil {
			return err
		}
		if err := r.collect(child); err != nil {
			return err
		}
		r.ordered = append(r.ordered, path)
	}
	return nil
}

func mergeConfigFile(v *viper.Viper, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return v.MergeConfig(f)
}

// BindEnvsRecursive walks a config struct and binds an environment variable
// for each mapstructure-tagged field so that env overrides work together with
// viper.Unmarshal.
func BindEnvsRecursive(v *viper.Viper, iface interface{}, path string) error {
	val := reflect.ValueOf(iface).Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		fullPath := tag
		if path != "" {
			fullPath = path + "." + tag
		}

		field := val.Field(i)
		if field.Kind() == reflect.Ptr {
			if field.IsNil() && field.Type().Elem().Kind() == reflect.Struct {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		if field.Kind() == reflect.Struct {
			if err := BindEnvsRecursive(v, field.Addr().Interface(), fullPath); err != nil {
				return err
			}
		}

		if err := v.BindEnv(fullPath); err != nil {
			return fmt.Errorf("failed to bind environment variable: %w", err)
		}
	}
	return nil
}
