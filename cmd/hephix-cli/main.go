package main

import (
	"context"

	"hephix-backend/cmd/hephix-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
