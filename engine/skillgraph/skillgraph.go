// Package skillgraph maintains the job↔skill relationship graph in Neo4j.
// It is enrichment only: writes happen as a side effect of indexing and
// failures are logged, never surfaced to the matching path.
package skillgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/talentgrid/talentgrid/engine/domain"
)

// JobRef is a lightweight handle to a job node.
type JobRef struct {
	ID    string
	Title string
	Level string
}

// Graph wraps a Neo4j driver with job/skill operations.
type Graph struct {
	driver neo4j.DriverWithContext
}

// New creates a Graph over an existing driver.
func New(driver neo4j.DriverWithContext) *Graph {
	return &Graph{driver: driver}
}

// Connect dials Neo4j with basic auth and verifies connectivity.
func Connect(ctx context.Context, uri, user, pass string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

// Available reports whether the graph is configured.
func (g *Graph) Available() bool { return g != nil && g.driver != nil }

// Close releases the underlying driver.
func (g *Graph) Close(ctx context.Context) error {
	if !g.Available() {
		return nil
	}
	return g.driver.Close(ctx)
}

// SaveJobSkills merges the job node and a REQUIRES edge per required skill
// in a single transaction. Skills removed from the job keep their nodes but
// lose the edge.
func (g *Graph) SaveJobSkills(ctx context.Context, job domain.Job) error {
	if !g.Available() {
		return domain.ErrIndexUnavailable
	}

	skills := domain.NormalizeSkills(job.RequiredSkills)

	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		cypher := `MERGE (j:Job {id: $id}) SET j += $props`
		if _, err := tx.Run(ctx, cypher, map[string]any{
			"id":    job.ID,
			"props": jobToProps(job),
		}); err != nil {
			return nil, err
		}

		cypher = `MATCH (j:Job {id: $id})-[r:REQUIRES]->(:Skill) DELETE r`
		if _, err := tx.Run(ctx, cypher, map[string]any{"id": job.ID}); err != nil {
			return nil, err
		}

		for _, skill := range skills {
			cypher = `MERGE (s:Skill {name: $name})
					  WITH s
					  MATCH (j:Job {id: $id})
					  MERGE (j)-[:REQUIRES]->(s)`
			if _, err := tx.Run(ctx, cypher, map[string]any{
				"name": skill,
				"id":   job.ID,
			}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("save job skills for %s: %w", job.ID, err)
	}
	return nil
}

// JobsWithSkill returns jobs whose required skills include the given one.
func (g *Graph) JobsWithSkill(ctx context.Context, skill string) ([]JobRef, error) {
	if !g.Available() {
		return nil, domain.ErrIndexUnavailable
	}

	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (j:Job)-[:REQUIRES]->(s:Skill {name: $name})
			   RETURN j ORDER BY j.id`
	result, err := sess.Run(ctx, cypher, map[string]any{"name": normalizeOne(skill)})
	if err != nil {
		return nil, err
	}
	return collectJobs(ctx, result)
}

// RelatedSkills returns skills co-required with the given skill, most
// common first.
func (g *Graph) RelatedSkills(ctx context.Context, skill string, limit int) ([]string, error) {
	if !g.Available() {
		return nil, domain.ErrIndexUnavailable
	}
	if limit <= 0 {
		limit = 10
	}

	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	cypher := `MATCH (s:Skill {name: $name})<-[:REQUIRES]-(:Job)-[:REQUIRES]->(other:Skill)
			   WHERE other.name <> $name
			   RETURN other.name AS name, count(*) AS freq
			   ORDER BY freq DESC, name
			   LIMIT $limit`
	result, err := sess.Run(ctx, cypher, map[string]any{
		"name":  normalizeOne(skill),
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}

	var names []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("name"); ok {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names, nil
}

// RemoveJob detaches and deletes the job node.
func (g *Graph) RemoveJob(ctx context.Context, jobID string) error {
	if !g.Available() {
		return domain.ErrIndexUnavailable
	}

	sess := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `MATCH (j:Job {id: $id}) DETACH DELETE j`,
		map[string]any{"id": jobID})
	return err
}

func collectJobs(ctx context.Context, result neo4j.ResultWithContext) ([]JobRef, error) {
	var jobs []JobRef
	for result.Next(ctx) {
		node, _, err := neo4j.GetRecordValue[dbtype.Node](result.Record(), "j")
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, jobFromProps(node.Props))
	}
	return jobs, nil
}

func jobToProps(j domain.Job) map[string]any {
	return map[string]any{
		"id":    j.ID,
		"title": j.Title,
		"level": string(j.Level),
	}
}

func jobFromProps(props map[string]any) JobRef {
	return JobRef{
		ID:    strProp(props, "id"),
		Title: strProp(props, "title"),
		Level: strProp(props, "level"),
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func normalizeOne(skill string) string {
	s := domain.NormalizeSkills([]string{skill})
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
