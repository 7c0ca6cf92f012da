// cmd/server/main.go
package main

import (
	"github.com/Annany2002/nebula-dq/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	Execute()
}
