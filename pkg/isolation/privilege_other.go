//go:build !(linux && amd64)

package isolation

import (
	"fmt"
	"runtime"
)

func raisePrivilege() error {
	return fmt.Errorf("interrupt masking is not supported on %s/%s", runtime.GOOS, runtime.GOARCH)
}
