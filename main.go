package main

import (
	"flag"

	"go.uber.org/zap"

	"microblog/crud"
	"microblog/domain"
	"microblog/errs"
	"microblog/http"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running
	// in production, in which case a config.yaml file is required and the app
	// will panic if no file is found.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a config.yaml file is provided before the application starts.")
	seedBool := flag.Bool("seed", false, "Create the default groups, then exit. This is the operator path for group management.")
	flag.Parse()

	// Load configuration from a config.yaml file if present, otherwise use the
	// default dev setup.
	config := LoadConfig(*productionBool)

	logger := newLogger(config.IsProd())
	defer logger.Sync()

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.Pepper, config.HMACKey),
		crud.WithGroup(),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithImage(config.MediaRoot),
	)
	must(err)

	if *seedBool {
		seedGroups(services, logger)
		return
	}

	// Set up a webserver.
	server, err := http.NewServer(
		config.IsProd(),
		config.CSRFKey,
		config.MediaRoot,
		logger,
		NewRedis(config.Redis),
		config.PageCacheTTL(),
		services,
	)
	must(err)

	// Serve the app.
	must(server.Run(config.Port))
}

// newLogger builds the zap logger matching the environment.
func newLogger(isProd bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if isProd {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	must(err)
	return logger
}

// seedGroups creates the default communities. Already existing slugs are
// skipped, so seeding is safe to repeat.
func seedGroups(services *crud.Services, logger *zap.Logger) {
	defaults := []domain.Group{
		{Title: "General", Slug: "general", Description: "Anything goes."},
		{Title: "Tech", Slug: "tech", Description: "Software, hardware and everything between."},
		{Title: "Travel", Slug: "travel", Description: "Places worth writing about."},
	}
	for i := range defaults {
		group := defaults[i]
		if err := services.Group.Create(&group); err != nil {
			if errs.ErrorCode(err) == errs.EINVALID {
				logger.Info("group already present, skipping", zap.String("slug", group.Slug))
				continue
			}
			must(err)
		}
		logger.Info("group created", zap.String("slug", group.Slug))
	}
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
