// Package db opens PostgreSQL pools and applies goose migrations.
//
//	pool, err := db.Open(ctx, db.Config{URL: os.Getenv("DATABASE_URL")})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	sub, _ := fs.Sub(migrations, "migrations")
//	err = db.Migrate(ctx, pool, sub, "orders_migrations", log)
//
// WithTx runs a function in a transaction. Healthcheck adapts a pool to a
// readiness check.
package db
