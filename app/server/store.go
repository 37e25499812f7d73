package server

import (
	"context"
	"fmt"

	"todo-tasks/app/config"
	"todo-tasks/app/database"
	"todo-tasks/app/store"

	"github.com/sirupsen/logrus"
)

// OpenStore opens the task store selected by c.Driver and makes sure its
// schema is in place.
func OpenStore(ctx context.Context, c *config.Store, log logrus.FieldLogger) (store.TaskStore, error) {
	switch c.Driver {
	case config.DriverSQLite:
		db, err := database.OpenDB(c.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.WithField("path", c.SQLite.Path).Info("sqlite store ready")
		return store.NewSQLiteTaskStore(db), nil

	case config.DriverNeo4j:
		driver, err := config.InitNeo4j(ctx, c.Neo4j)
		if err != nil {
			return nil, err
		}
		s := store.NewNeo4jTaskStore(driver, c.Neo4j.Database)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		log.WithField("uri", c.Neo4j.URI).Info("neo4j store ready")
		return s, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", c.Driver)
}
