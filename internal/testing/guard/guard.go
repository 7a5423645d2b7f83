package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("FARMCORE_TEST_MODE") == "" {
			_ = os.Setenv("FARMCORE_TEST_MODE", "1")
		}
	})
}
