// Command docenginectl drives a single document through a small workflow
// definition end to end: it seeds a document aggregate and its CID chain,
// starts a workflow instance against an in-memory repository, executes a
// scripted list of transitions, and prints the resulting event chain and
// verification report. It exists to exercise the wiring between document,
// cid, workflow, event, repository, emit, and metrics end to end, not to
// serve requests (see SPEC_FULL.md's server Non-goals).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/contentgraph/docengine/cid"
	"github.com/contentgraph/docengine/config"
	"github.com/contentgraph/docengine/docerr"
	"github.com/contentgraph/docengine/document"
	"github.com/contentgraph/docengine/emit"
	"github.com/contentgraph/docengine/metrics"
	"github.com/contentgraph/docengine/repository"
	"github.com/contentgraph/docengine/workflow"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	documentTitle := flag.String("title", "Q3 Compliance Report", "title of the seed document")
	jsonLogs := flag.Bool("json-logs", false, "emit observability events as JSON instead of text")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("docenginectl: load config: %v", err)
	}

	zapLevel := zap.NewAtomicLevel()
	if err := zapLevel.UnmarshalText([]byte(cfg.Engine.LogLevel)); err != nil {
		zapLevel.SetLevel(zap.InfoLevel)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zapLevel
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("docenginectl: build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if err := run(sugar, *documentTitle, *jsonLogs); err != nil {
		sugar.Fatalw("run failed", "error", err)
	}
}

func run(logger *zap.SugaredLogger, title string, jsonLogs bool) error {
	ctx := context.Background()
	now := time.Now().UTC()

	store := cid.NewMemBlobStore()
	root, err := store.Put(ctx, []byte("initial document content: "+title))
	if err != nil {
		return fmt.Errorf("seed content: %w", err)
	}
	chain := cid.NewChain("doc-1", root)
	chainObserver := &cid.Observer{Emitter: emit.NewLogEmitter(os.Stdout, jsonLogs)}

	doc := document.New("doc-1", document.DocumentInfo{
		Title:     title,
		MimeType:  "text/plain",
		SizeBytes: int64(len("initial document content: " + title)),
	}, root, now)
	doc.Upload(document.DocumentInfo{
		Title:     title,
		MimeType:  "text/plain",
		SizeBytes: int64(len("initial document content: " + title)),
	}, root, document.Classification{Confidentiality: document.ConfidentialityInternal}, "report", "cli-operator", now)
	lc, _ := doc.Component(document.TypeLifecycle)
	logger.Infow("document seeded", "document_id", doc.ID, "version", doc.Version, "content_cid", string(root),
		"lifecycle_status", lc.(document.Lifecycle).Status)

	amended, err := store.Put(ctx, []byte("revised document content: "+title))
	if err != nil {
		return fmt.Errorf("amend content: %w", err)
	}
	if err := chainObserver.AddSuccessor(chain, root, amended, cid.EditDirectReplacement, cid.EditMetadata{Description: "reviewer-1 revision"}, now); err != nil {
		return fmt.Errorf("extend chain: %w", err)
	}
	report := chainObserver.VerifyChain(ctx, chain, store)
	logger.Infow("content chain verified", "valid", report.Valid, "issues", len(report.Issues))

	def := sampleDefinition()
	repo := repository.NewMemRepository()
	if err := repo.SaveDefinition(ctx, def); err != nil {
		return fmt.Errorf("save definition: %w", err)
	}

	engine := workflow.NewEngine(repo).
		WithEmitter(emit.NewLogEmitter(os.Stdout, jsonLogs)).
		WithMetrics(metrics.New(prometheus.NewRegistry())).
		WithLogger(logger)

	inst, err := engine.StartWorkflow(ctx, def.ID, doc.ID, "cli-operator", map[string]interface{}{"priority": "high"})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	logger.Infow("workflow started", "instance_id", inst.ID, "status", inst.Status)

	inst, err = transition(ctx, engine, inst.ID, "start", "review", "cli-operator",
		[]string{"reviewer"}, []string{"workflow:approve"}, 2048, "draft", nil)
	if err != nil {
		return err
	}
	logger.Infow("workflow transitioned", "instance_id", inst.ID, "status", inst.Status, "node", "review")

	inst, err = transition(ctx, engine, inst.ID, "review", "approve", "cli-operator",
		[]string{"reviewer"}, []string{"workflow:approve"}, 2048, "draft", map[string]interface{}{"approved": true})
	if err != nil {
		return err
	}
	logger.Infow("workflow transitioned", "instance_id", inst.ID, "status", inst.Status, "node", "approve")

	fmt.Printf("final status: %s\n", inst.Status)
	fmt.Printf("event chain length: %d\n", inst.EventChain.Length())
	for i, link := range inst.EventChain.Links {
		fmt.Printf("  [%d] %s node=%q cid=%s\n", i, link.Kind, link.NodeID, link.Integrity.EventCID)
	}
	return nil
}

// transition wraps Engine.ExecuteTransition to unwrap a *docerr.TaggedError
// into a message that names its stable error code, the way a CLI operator
// diagnosing a rejected transition would want to see it.
func transition(ctx context.Context, engine *workflow.Engine, instanceID, from, to, triggeredBy string,
	userRoles, userPermissions []string, documentSize int64, documentState string, data map[string]interface{}) (*workflow.Instance, error) {
	inst, err := engine.ExecuteTransition(ctx, instanceID, from, to, triggeredBy, userRoles, userPermissions, documentSize, documentState, data)
	if err != nil {
		if docErr, ok := err.(*docerr.TaggedError); ok {
			return nil, fmt.Errorf("execute transition %s->%s: %s: %s", from, to, docErr.Code, docErr.Message)
		}
		return nil, fmt.Errorf("execute transition %s->%s: %w", from, to, err)
	}
	return inst, nil
}

// sampleDefinition builds a minimal review-and-approve workflow: a reviewer
// guard on the review node gates the transition into it, mirroring the guard/edge wiring
// ExecuteTransition exercises in its normal operation.
func sampleDefinition() *workflow.Definition {
	return &workflow.Definition{
		ID:     "review-and-approve",
		Name:   "Review and Approve",
		Active: true,
		Nodes: map[string]workflow.Node{
			"start": {ID: "start", Kind: workflow.NodeStart, Start: &workflow.StartNode{}},
			"review": {
				ID:   "review",
				Kind: workflow.NodeTask,
				Task: &workflow.TaskNode{
					Type: workflow.TaskReview,
					Guards: []workflow.Guard{
						{Kind: workflow.GuardRequireRole, Role: "reviewer"},
					},
				},
			},
			"approve": {ID: "approve", Kind: workflow.NodeEnd, End: &workflow.EndNode{Completion: workflow.CompletionSuccess}},
		},
		Edges: []workflow.Edge{
			{ID: "e1", From: "start", To: "review"},
			{ID: "e2", From: "review", To: "approve"},
		},
	}
}
