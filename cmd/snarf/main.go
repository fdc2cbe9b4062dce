package main

import (
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/server"
	"github.com/Gustavo653/Snarf-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// The monolith: HTTP API plus the background job runner and the daily
// sweeps, all in one process.
func main() {
	app := fx.New(
		config.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
