package main

import (
	"github.com/Gustavo653/Snarf-sub000/internal/billing"
	"github.com/Gustavo653/Snarf-sub000/internal/boleto"
	"github.com/Gustavo653/Snarf-sub000/internal/clock"
	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"github.com/Gustavo653/Snarf-sub000/internal/customer"
	"github.com/Gustavo653/Snarf-sub000/internal/generator"
	"github.com/Gustavo653/Snarf-sub000/internal/invoice"
	"github.com/Gustavo653/Snarf-sub000/internal/invoiceconfig"
	"github.com/Gustavo653/Snarf-sub000/internal/jobs"
	"github.com/Gustavo653/Snarf-sub000/internal/migration"
	"github.com/Gustavo653/Snarf-sub000/internal/observability"
	"github.com/Gustavo653/Snarf-sub000/internal/product"
	"github.com/Gustavo653/Snarf-sub000/internal/providers"
	"github.com/Gustavo653/Snarf-sub000/internal/validator"
	"github.com/Gustavo653/Snarf-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// Worker process: job runner, sweeps and gateway traffic, no HTTP API.
// Scale these horizontally; FOR UPDATE SKIP LOCKED claiming keeps a
// fleet from double-running jobs.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		jobs.Module,
		customer.Module,
		product.Module,
		invoice.Module,
		invoiceconfig.Module,
		providers.Module,
		boleto.Module,
		billing.Module,
		generator.Module,
		validator.Module,
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
