package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	nomad "github.com/hashicorp/nomad/api"

	"github.com/kirychukyurii/partview/internal/config"
	"github.com/kirychukyurii/partview/internal/hostlist"
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/util"
)

// defaultNodePool is the pool Nomad assigns to nodes without an explicit one
const defaultNodePool = "default"

// nomadAPI is the part of the Nomad client the repository uses
type nomadAPI interface {
	ListNodes(ctx context.Context) ([]*nomad.NodeListStub, uint64, error)
	ListNodePools(ctx context.Context) ([]*nomad.NodePool, uint64, error)
}

// nomadClient adapts *nomad.Client to nomadAPI
type nomadClient struct {
	client *nomad.Client
}

func (c *nomadClient) ListNodes(ctx context.Context) ([]*nomad.NodeListStub, uint64, error) {
	nodes, meta, err := c.client.Nodes().List((&nomad.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, 0, err
	}
	return nodes, meta.LastIndex, nil
}

func (c *nomadClient) ListNodePools(ctx context.Context) ([]*nomad.NodePool, uint64, error) {
	pools, meta, err := c.client.NodePools().List((&nomad.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, 0, err
	}
	return pools, meta.LastIndex, nil
}

// nomadRepository presents Nomad node pools as partitions
type nomadRepository struct {
	api    nomadAPI
	region string
	logger *slog.Logger

	mu         sync.Mutex
	nodesIndex uint64
	poolsIndex uint64
	lastUpdate time.Time
}

// NewNomadRepository creates a repository backed by the Nomad API
func NewNomadRepository(cfg config.NomadConfig, logger *slog.Logger) (PartitionRepository, error) {
	client, err := createNomadClient(cfg)
	if err != nil {
		return nil, err
	}

	// Check cluster health and connectivity
	logger.Info("checking cluster health",
		slog.String("address", cfg.Address),
	)

	if err := checkClusterHealth(client); err != nil {
		// Views will report the fetch error until the cluster is reachable
		logger.Warn("nomad cluster is not healthy",
			slog.String("address", cfg.Address),
			slog.String("error", err.Error()),
		)
	}

	return newNomadRepository(&nomadClient{client: client}, cfg.Region, logger), nil
}

func newNomadRepository(api nomadAPI, region string, logger *slog.Logger) *nomadRepository {
	return &nomadRepository{
		api:    api,
		region: region,
		logger: logger,
	}
}

// createNomadClient creates a Nomad API client for a cluster
func createNomadClient(cfg config.NomadConfig) (*nomad.Client, error) {
	nomadConfig := nomad.DefaultConfig()
	nomadConfig.Address = cfg.Address

	// Set region if specified (used for API calls)
	if cfg.Region != "" {
		nomadConfig.Region = cfg.Region
	}

	httpClient, err := util.NewHTTPClient(cfg.TLS, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS config: %w", err)
	}
	nomadConfig.HttpClient = httpClient

	client, err := nomad.NewClient(nomadConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Nomad client: %w", err)
	}

	return client, nil
}

// checkClusterHealth checks if Nomad cluster is healthy and reachable
func checkClusterHealth(client *nomad.Client) error {
	leader, err := client.Status().Leader()
	if err != nil {
		return fmt.Errorf("failed to get leader: %w", err)
	}

	if leader == "" {
		return fmt.Errorf("no leader elected")
	}

	return nil
}

// Fetch lists nodes and node pools and groups the nodes into partitions
func (r *nomadRepository) Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error) {
	nodes, nodesIndex, err := r.api.ListNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	pools, poolsIndex, err := r.api.ListNodePools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list node pools: %w", err)
	}

	// Raft indexes do not carry a wall-clock time; the time the indexes were
	// first seen stands in for the last update time.
	r.mu.Lock()
	if r.lastUpdate.IsZero() || nodesIndex != r.nodesIndex || poolsIndex != r.poolsIndex {
		r.nodesIndex = nodesIndex
		r.poolsIndex = poolsIndex
		r.lastUpdate = time.Now()
	}
	lastUpdate := r.lastUpdate
	r.mu.Unlock()

	if !since.IsZero() && !lastUpdate.After(since) {
		return nil, ErrNoChange
	}

	snap := &model.Snapshot{
		Partitions: poolsToPartitions(pools, nodes),
		LastUpdate: lastUpdate,
	}

	r.logger.Debug("loaded partitions",
		slog.String("source", config.SourceNomad),
		slog.String("region", r.region),
		slog.Int("nodes", len(nodes)),
		slog.Int("count", len(snap.Partitions)),
	)

	return snap, nil
}

// poolsToPartitions builds one partition per node pool, ordered by pool name.
// Pools without nodes are kept with an empty node list.
func poolsToPartitions(pools []*nomad.NodePool, nodes []*nomad.NodeListStub) []model.Partition {
	members := make(map[string][]*nomad.NodeListStub)
	for _, p := range pools {
		if p.Name == "all" {
			continue // built-in pseudo pool spanning every node
		}
		members[p.Name] = nil
	}
	for _, n := range nodes {
		pool := n.NodePool
		if pool == "" {
			pool = defaultNodePool
		}
		members[pool] = append(members[pool], n)
	}

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	partitions := make([]model.Partition, 0, len(names))
	for _, name := range names {
		stubs := members[name]
		hosts := make([]string, 0, len(stubs))
		up := false
		for _, n := range stubs {
			hosts = append(hosts, n.Name)
			if isReady(n) {
				up = true
			}
		}

		partitions = append(partitions, model.Partition{
			Name:       name,
			Up:         up,
			MaxTime:    model.InfiniteTime,
			TotalNodes: uint32(len(stubs)),
			MaxNodes:   model.InfiniteTime,
			Nodes:      hostlist.Compress(hosts),
		})
	}
	return partitions
}

// isReady returns true if node can accept new allocations
func isReady(n *nomad.NodeListStub) bool {
	return n.Status == "ready" && !n.Drain && n.SchedulingEligibility == "eligible"
}
