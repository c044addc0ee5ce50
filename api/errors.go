package api

import "fmt"

func errMissingQueryParam(name string) error {
	return fmt.Errorf("missing required query parameter: %s", name)
}
