package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-tasks/app/models"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jTaskStore implements TaskStore on a Neo4j graph. A subtask is linked
// to its parent by a HAS_PARENT relationship and also carries parent_id.
type Neo4jTaskStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jTaskStore creates a new Neo4jTaskStore. An empty database name
// uses the server default.
func NewNeo4jTaskStore(driver neo4j.DriverWithContext, database string) *Neo4jTaskStore {
	return &Neo4jTaskStore{driver: driver, database: database}
}

var _ TaskStore = (*Neo4jTaskStore)(nil)

// EnsureSchema creates the id constraint and the indexes used by queries.
func (s *Neo4jTaskStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE CONSTRAINT task_id_unique IF NOT EXISTS FOR (t:Task) REQUIRE t.id IS UNIQUE",
		"CREATE INDEX task_title IF NOT EXISTS FOR (t:Task) ON (t.title)",
		"CREATE INDEX task_due_date IF NOT EXISTS FOR (t:Task) ON (t.due_date)",
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range stmts {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("applying %q: %w", stmt, err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("applying %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *Neo4jTaskStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jTaskStore) Create(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	prepareNew(t, now)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (e:Task {title: $title}) WHERE e.deleted_at IS NULL RETURN count(e) AS n",
			map[string]any{"title": t.Title},
		)
		if err != nil {
			return nil, err
		}
		if n, err := singleInt(ctx, res, "n"); err != nil {
			return nil, err
		} else if n > 0 {
			return nil, fmt.Errorf("title %q: %w", t.Title, ErrConstraintViolation)
		}

		var parentID any
		if t.ParentID != nil {
			parentID = *t.ParentID
			res, err := tx.Run(ctx,
				"MATCH (p:Task {id: $id}) WHERE p.deleted_at IS NULL RETURN count(p) AS n",
				map[string]any{"id": *t.ParentID},
			)
			if err != nil {
				return nil, err
			}
			if n, err := singleInt(ctx, res, "n"); err != nil {
				return nil, err
			} else if n == 0 {
				return nil, fmt.Errorf("parent %s: %w", *t.ParentID, ErrConstraintViolation)
			}
		}

		_, err = tx.Run(ctx,
			"CREATE (t:Task {id: $id, title: $title, status: $status, due_date: $due_date, "+
				"parent_id: $parent_id, seq: $seq, created_at: $created_at, updated_at: $updated_at})",
			map[string]any{
				"id":         t.ID,
				"title":      t.Title,
				"status":     string(t.Status),
				"due_date":   t.DueDate.Format(models.DateLayout),
				"parent_id":  parentID,
				"seq":        now.UnixNano(),
				"created_at": formatTime(t.CreatedAt),
				"updated_at": formatTime(t.UpdatedAt),
			},
		)
		if err != nil {
			return nil, err
		}

		if t.ParentID != nil {
			_, err = tx.Run(ctx,
				"MATCH (child:Task {id: $childID}), (parent:Task {id: $parentID}) "+
					"CREATE (child)-[:HAS_PARENT]->(parent)",
				map[string]any{"childID": t.ID, "parentID": *t.ParentID},
			)
		}
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (s *Neo4jTaskStore) FindByID(ctx context.Context, id string) (*models.Task, error) {
	return s.findOne(ctx, "MATCH (t:Task {id: $id}) WHERE t.deleted_at IS NULL RETURN t", map[string]any{"id": id})
}

func (s *Neo4jTaskStore) FindByIDWithTrashed(ctx context.Context, id string) (*models.Task, error) {
	return s.findOne(ctx, "MATCH (t:Task {id: $id}) RETURN t", map[string]any{"id": id})
}

func (s *Neo4jTaskStore) FindChildren(ctx context.Context, parentID string) ([]*models.Task, error) {
	return s.findMany(ctx,
		"MATCH (t:Task)-[:HAS_PARENT]->(:Task {id: $id}) WHERE t.deleted_at IS NULL "+
			"RETURN t ORDER BY t.due_date ASC, t.seq ASC",
		map[string]any{"id": parentID},
	)
}

func (s *Neo4jTaskStore) FindParent(ctx context.Context, childID string) (*models.Task, error) {
	parent, err := s.findOne(ctx,
		"MATCH (:Task {id: $id})-[:HAS_PARENT]->(t:Task) WHERE t.deleted_at IS NULL RETURN t",
		map[string]any{"id": childID},
	)
	if err != nil {
		return nil, fmt.Errorf("parent of %s: %w", childID, err)
	}
	return parent, nil
}

func (s *Neo4jTaskStore) TitleExists(ctx context.Context, title string) (bool, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	n, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {title: $title}) WHERE t.deleted_at IS NULL RETURN count(t) AS n",
			map[string]any{"title": title},
		)
		if err != nil {
			return nil, err
		}
		return singleInt(ctx, res, "n")
	})
	if err != nil {
		return false, fmt.Errorf("checking title: %w", err)
	}
	return n.(int64) > 0, nil
}

func (s *Neo4jTaskStore) Query() *TaskQuery {
	return NewTaskQuery(s)
}

func (s *Neo4jTaskStore) Save(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (e:Task {title: $title}) WHERE e.deleted_at IS NULL AND e.id <> $id RETURN count(e) AS n",
			map[string]any{"title": t.Title, "id": t.ID},
		)
		if err != nil {
			return nil, err
		}
		if n, err := singleInt(ctx, res, "n"); err != nil {
			return nil, err
		} else if n > 0 {
			return nil, fmt.Errorf("title %q: %w", t.Title, ErrConstraintViolation)
		}

		var parentID any
		if t.ParentID != nil {
			parentID = *t.ParentID
			res, err := tx.Run(ctx,
				"MATCH (p:Task {id: $id}) WHERE p.deleted_at IS NULL RETURN count(p) AS n",
				map[string]any{"id": *t.ParentID},
			)
			if err != nil {
				return nil, err
			}
			if n, err := singleInt(ctx, res, "n"); err != nil {
				return nil, err
			} else if n == 0 {
				return nil, fmt.Errorf("parent %s: %w", *t.ParentID, ErrConstraintViolation)
			}
		}

		// The HAS_PARENT edge is rebuilt from parent_id on every save.
		res, err = tx.Run(ctx,
			"MATCH (t:Task {id: $id}) WHERE t.deleted_at IS NULL "+
				"SET t.title = $title, t.status = $status, t.due_date = $due_date, "+
				"t.parent_id = $parent_id, t.updated_at = $updated_at "+
				"WITH t OPTIONAL MATCH (t)-[r:HAS_PARENT]->() DELETE r "+
				"WITH DISTINCT t OPTIONAL MATCH (p:Task {id: $parent_id}) "+
				"FOREACH (_ IN CASE WHEN p IS NULL THEN [] ELSE [1] END | CREATE (t)-[:HAS_PARENT]->(p)) "+
				"RETURN count(t) AS n",
			map[string]any{
				"id":         t.ID,
				"title":      t.Title,
				"status":     string(t.Status),
				"due_date":   t.DueDate.Format(models.DateLayout),
				"parent_id":  parentID,
				"updated_at": formatTime(now),
			},
		)
		if err != nil {
			return nil, err
		}
		if n, err := singleInt(ctx, res, "n"); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	t.UpdatedAt = now
	return nil
}

// SoftDelete marks the task and every active descendant in a single write
// transaction.
func (s *Neo4jTaskStore) SoftDelete(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {id: $id}) WHERE t.deleted_at IS NULL "+
				"OPTIONAL MATCH (c:Task)-[:HAS_PARENT*1..]->(t) WHERE c.deleted_at IS NULL "+
				"WITH t, collect(DISTINCT c) AS children "+
				"FOREACH (c IN children | SET c.deleted_at = $now, c.updated_at = $now) "+
				"SET t.deleted_at = $now, t.updated_at = $now "+
				"RETURN count(t) AS n",
			map[string]any{"id": t.ID, "now": formatTime(now)},
		)
		if err != nil {
			return nil, err
		}
		n, err := singleInt(ctx, res, "n")
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("soft-deleting task %s: %w", t.ID, err)
	}
	t.DeletedAt = &now
	t.UpdatedAt = now
	return nil
}

// RunQuery implements QueryRunner.
func (s *Neo4jTaskStore) RunQuery(ctx context.Context, f Filter) ([]*models.Task, error) {
	where := []string{"t.deleted_at IS NULL"}
	params := map[string]any{}

	if f.Status != nil {
		where = append(where, "t.status = $status")
		params["status"] = string(*f.Status)
	}
	if f.ParentOnly {
		where = append(where, "t.parent_id IS NULL")
	}
	for i, title := range f.TitleContains {
		key := fmt.Sprintf("title%d", i)
		where = append(where, "toLower(t.title) CONTAINS toLower($"+key+")")
		params[key] = title
	}
	for i, b := range f.Due {
		op, err := b.Op.operator()
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("due%d", i)
		where = append(where, "t.due_date "+op+" $"+key)
		params[key] = b.Date.Format(models.DateLayout)
	}

	cypher := "MATCH (t:Task) WHERE " + strings.Join(where, " AND ") + " RETURN t"
	if f.OrderByDueDate {
		cypher += " ORDER BY t.due_date ASC, t.seq ASC"
	} else {
		cypher += " ORDER BY t.seq ASC"
	}

	tasks, err := s.findMany(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	if f.WithSubTasks && len(tasks) > 0 {
		children, err := s.findMany(ctx,
			"MATCH (t:Task)-[:HAS_PARENT]->(p:Task) WHERE p.id IN $ids AND t.deleted_at IS NULL "+
				"RETURN t ORDER BY t.due_date ASC, t.seq ASC",
			map[string]any{"ids": taskIDs(tasks)},
		)
		if err != nil {
			return nil, err
		}
		groupByParent(tasks, children)
	}
	return tasks, nil
}

func (s *Neo4jTaskStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jTaskStore) findOne(ctx context.Context, cypher string, params map[string]any) (*models.Task, error) {
	tasks, err := s.findMany(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return tasks[0], nil
}

func (s *Neo4jTaskStore) findMany(ctx context.Context, cypher string, params map[string]any) ([]*models.Task, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}

		tasks := []*models.Task{}
		for _, record := range records {
			value, ok := record.Get("t")
			if !ok {
				return nil, errors.New("record has no task column")
			}
			node, ok := value.(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected task value %T", value)
			}
			t, err := taskFromProps(node.Props)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return result.([]*models.Task), nil
}

func singleInt(ctx context.Context, res neo4j.ResultWithContext, key string) (int64, error) {
	record, err := res.Single(ctx)
	if err != nil {
		return 0, err
	}
	value, ok := record.Get(key)
	if !ok {
		return 0, fmt.Errorf("record has no %s column", key)
	}
	n, ok := value.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected %s value %T", key, value)
	}
	return n, nil
}

func taskFromProps(props map[string]any) (*models.Task, error) {
	var t models.Task
	t.ID, _ = props["id"].(string)
	t.Title, _ = props["title"].(string)
	status, _ := props["status"].(string)
	t.Status = models.TaskStatus(status)

	if p, ok := props["parent_id"].(string); ok && p != "" {
		t.ParentID = &p
	}

	var err error
	due, _ := props["due_date"].(string)
	if t.DueDate, err = time.Parse(models.DateLayout, due); err != nil {
		return nil, fmt.Errorf("parsing due_date %q: %w", due, err)
	}
	created, _ := props["created_at"].(string)
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
	}
	updated, _ := props["updated_at"].(string)
	if t.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at %q: %w", updated, err)
	}
	if deleted, ok := props["deleted_at"].(string); ok {
		d, err := time.Parse(timeLayout, deleted)
		if err != nil {
			return nil, fmt.Errorf("parsing deleted_at %q: %w", deleted, err)
		}
		t.DeletedAt = &d
	}
	return &t, nil
}
