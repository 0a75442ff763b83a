package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("WALL_TEST_MODE") == "" {
			_ = os.Setenv("WALL_TEST_MODE", "1")
		}
	})
}
