package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kirychukyurii/partview/internal/config"
	"github.com/kirychukyurii/partview/internal/model"
	"github.com/kirychukyurii/partview/internal/util"
)

// slurmNoChangeInData is the error number slurmctld reports when nothing
// changed since the requested update time
const slurmNoChangeInData = 1900

// slurmNumber is the {set, infinite, number} wrapper used by slurmrestd
type slurmNumber struct {
	Set      bool  `json:"set"`
	Infinite bool  `json:"infinite"`
	Number   int64 `json:"number"`
}

// slurmError is one entry of the errors array in a slurmrestd response
type slurmError struct {
	Description string `json:"description"`
	ErrorNumber int    `json:"error_number"`
	Error       string `json:"error"`
	Source      string `json:"source"`
}

// slurmPartition is the subset of a slurmrestd partition we display
type slurmPartition struct {
	Name  string `json:"name"`
	Nodes struct {
		Configured string `json:"configured"`
		Total      uint32 `json:"total"`
	} `json:"nodes"`
	Maximums struct {
		Time          slurmNumber         `json:"time"`
		Nodes         slurmNumber         `json:"nodes"`
		Oversubscribe *slurmOversubscribe `json:"oversubscribe"`
	} `json:"maximums"`
	Minimums struct {
		Nodes uint32 `json:"nodes"`
	} `json:"minimums"`
	Partition struct {
		State []string `json:"state"`
	} `json:"partition"`
	Flags []string `json:"flags"`
}

// slurmOversubscribe is the OverSubscribe setting of a partition
type slurmOversubscribe struct {
	Jobs  uint32   `json:"jobs"`
	Flags []string `json:"flags"`
}

// slurmPartitionsResponse is the body of GET /slurm/{version}/partitions/
type slurmPartitionsResponse struct {
	Partitions []slurmPartition `json:"partitions"`
	LastUpdate slurmNumber      `json:"last_update"`
	Errors     []slurmError     `json:"errors"`
}

// slurmRepository fetches partitions from slurmrestd
type slurmRepository struct {
	baseURL    string
	apiVersion string
	user       string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlurmRepository creates a repository backed by the slurmrestd REST API
func NewSlurmRepository(cfg config.SlurmConfig, logger *slog.Logger) (PartitionRepository, error) {
	if _, err := url.Parse(cfg.Address); err != nil {
		return nil, fmt.Errorf("invalid slurm address: %w", err)
	}

	httpClient, err := util.NewHTTPClient(cfg.TLS, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS config: %w", err)
	}

	logger.Info("slurmrestd client initialized",
		slog.String("address", cfg.Address),
		slog.String("api_version", cfg.APIVersion),
	)

	return &slurmRepository{
		baseURL:    strings.TrimRight(cfg.Address, "/"),
		apiVersion: cfg.APIVersion,
		user:       cfg.User,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Fetch loads partitions from slurmrestd
func (r *slurmRepository) Fetch(ctx context.Context, since time.Time) (*model.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/slurm/%s/partitions/", r.baseURL, r.apiVersion)
	if !since.IsZero() {
		endpoint += "?update_time=" + strconv.FormatInt(since.Unix(), 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.user != "" {
		req.Header.Set("X-SLURM-USER-NAME", r.user)
	}
	if r.token != "" {
		req.Header.Set("X-SLURM-USER-TOKEN", r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	var body slurmPartitionsResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	for _, e := range body.Errors {
		if e.ErrorNumber == slurmNoChangeInData {
			return nil, ErrNoChange
		}
	}

	if resp.StatusCode != http.StatusOK {
		if len(body.Errors) > 0 {
			return nil, fmt.Errorf("slurmrestd returned status %d: %s", resp.StatusCode, describeSlurmError(body.Errors[0]))
		}
		return nil, fmt.Errorf("slurmrestd returned status %d", resp.StatusCode)
	}
	if decodeErr != nil && decodeErr != io.EOF {
		return nil, fmt.Errorf("failed to decode partitions: %w", decodeErr)
	}
	if len(body.Errors) > 0 {
		return nil, fmt.Errorf("load partitions: %s", describeSlurmError(body.Errors[0]))
	}

	snap := &model.Snapshot{
		Partitions: make([]model.Partition, 0, len(body.Partitions)),
		LastUpdate: time.Unix(body.LastUpdate.Number, 0),
	}
	for _, p := range body.Partitions {
		snap.Partitions = append(snap.Partitions, p.toModel())
	}

	if !isNewer(snap, since) {
		return nil, ErrNoChange
	}

	r.logger.Debug("loaded partitions",
		slog.String("source", config.SourceSlurm),
		slog.Int("count", len(snap.Partitions)),
		slog.Time("last_update", snap.LastUpdate),
	)

	return snap, nil
}

func (p slurmPartition) toModel() model.Partition {
	maxTime := model.InfiniteTime
	if p.Maximums.Time.Set && !p.Maximums.Time.Infinite {
		maxTime = clampUint32(p.Maximums.Time.Number)
	}

	maxNodes := model.InfiniteTime
	if p.Maximums.Nodes.Set && !p.Maximums.Nodes.Infinite {
		maxNodes = clampUint32(p.Maximums.Nodes.Number)
	}

	// UP/DOWN and DEFAULT/HIDDEN/ROOT_ONLY may appear in either list
	states := make(map[string]bool, len(p.Partition.State)+len(p.Flags))
	for _, s := range append(append([]string{}, p.Partition.State...), p.Flags...) {
		states[strings.ToUpper(s)] = true
	}

	return model.Partition{
		Name:       p.Name,
		Up:         states["UP"],
		MaxTime:    maxTime,
		TotalNodes: p.Nodes.Total,
		MinNodes:   p.Minimums.Nodes,
		MaxNodes:   maxNodes,
		Nodes:      p.Nodes.Configured,
		Default:    states["DEFAULT"],
		Hidden:     states["HIDDEN"],
		RootOnly:   states["ROOT_ONLY"],
		Shared:     p.Maximums.Oversubscribe.label(),
	}
}

// label renders the setting the way scontrol prints OverSubscribe
func (o *slurmOversubscribe) label() string {
	if o == nil {
		return "NO"
	}
	for _, f := range o.Flags {
		if strings.EqualFold(f, "force") {
			return fmt.Sprintf("FORCE:%d", o.Jobs)
		}
	}
	switch {
	case o.Jobs == 0:
		return "EXCLUSIVE"
	case o.Jobs > 1:
		return fmt.Sprintf("YES:%d", o.Jobs)
	default:
		return "NO"
	}
}

// clampUint32 maps out-of-range values to the infinite sentinel
func clampUint32(n int64) uint32 {
	switch {
	case n < 0:
		return 0
	case n >= int64(model.InfiniteTime):
		return model.InfiniteTime
	default:
		return uint32(n)
	}
}

func describeSlurmError(e slurmError) string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Error != "":
		return e.Error
	default:
		return fmt.Sprintf("error %d", e.ErrorNumber)
	}
}
