package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/platform/neo4jdb"
	"github.com/yungbote/examtrack-backend/internal/types"
)

// SyncPrerequisiteGraph mirrors topics and their REQUIRES edges into Neo4j so
// external graph tooling can inspect the curriculum. The mirror is
// best-effort: it is never read on the request path and callers treat a
// failure as log-and-continue.
func SyncPrerequisiteGraph(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, topics []*types.Topic, edges []*types.TopicPrerequisite) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	nodes := make([]map[string]any, 0, len(topics))
	for _, t := range topics {
		if t == nil {
			continue
		}
		nodes = append(nodes, map[string]any{
			"id":              t.ID.String(),
			"name":            t.Name,
			"exam_weight":     t.ExamWeight,
			"estimated_hours": t.EstimatedHours,
			"synced_at":       now,
		})
	}

	rels := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil {
			continue
		}
		rels = append(rels, map[string]any{
			"topic_id":        e.TopicID.String(),
			"prereq_id":       e.PrerequisiteTopicID.String(),
			"minimum_mastery": e.MinimumMastery,
			"synced_at":       now,
		})
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Schema helpers are best-effort; restricted users may not be allowed to
	// create constraints.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT topic_id_unique IF NOT EXISTS FOR (t:Topic) REQUIRE t.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if len(nodes) > 0 {
			res, err := tx.Run(ctx, `
				UNWIND $nodes AS node
				MERGE (t:Topic {id: node.id})
				SET t.name = node.name,
				    t.exam_weight = node.exam_weight,
				    t.estimated_hours = node.estimated_hours,
				    t.synced_at = node.synced_at
			`, map[string]any{"nodes": nodes})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		if len(rels) > 0 {
			res, err := tx.Run(ctx, `
				UNWIND $rels AS rel
				MATCH (t:Topic {id: rel.topic_id})
				MATCH (p:Topic {id: rel.prereq_id})
				MERGE (t)-[r:REQUIRES]->(p)
				SET r.minimum_mastery = rel.minimum_mastery,
				    r.synced_at = rel.synced_at
			`, map[string]any{"rels": rels})
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
