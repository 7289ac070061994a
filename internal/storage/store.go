package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/psim/internal/config"
	"github.com/san-kum/psim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	configFile   = "sysConfig.yaml"
	seriesFile   = "series.csv"
	initialFile  = "initialState.xyz"
	finalFile    = "finalState.xyz"
	snapshotDir  = "snapshots"
	movieDir     = "movie"
	histogramDir = "histograms"
)

// ErrNotFound is returned when a trial does not exist.
var ErrNotFound = errors.New("storage: trial not found")

// Store is a directory of trials, one subdirectory each.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) BaseDir() string { return s.baseDir }

// Metadata describes a trial. It is rewritten as the run progresses.
type Metadata struct {
	ID            string             `json:"id"`
	Force         string             `json:"force"`
	Integrator    string             `json:"integrator"`
	Created       time.Time          `json:"created"`
	Updated       time.Time          `json:"updated"`
	Status        string             `json:"status"`
	Seed          int64              `json:"seed"`
	Particles     int                `json:"particles"`
	Box           float64            `json:"box"`
	Concentration float64            `json:"concentration"`
	Dt            float64            `json:"dt"`
	EndTime       float64            `json:"endTime"`
	LastTime      float64            `json:"lastTime"`
	Steps         int                `json:"steps"`
	Params        map[string]float64 `json:"params,omitempty"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

const (
	StatusCreated  = "created"
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
	StatusStopped  = "stopped"
)

// Trial is one run directory.
type Trial struct {
	ID  string
	Dir string
}

func (t *Trial) path(parts ...string) string {
	return filepath.Join(append([]string{t.Dir}, parts...)...)
}

// Create makes a new trial directory holding the config and initial
// metadata. An empty name is replaced by "<force>_<unix time>".
func (s *Store) Create(cfg *config.Config, name string) (*Trial, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	if name == "" {
		name = fmt.Sprintf("%s_%d", cfg.Force, time.Now().Unix())
	}

	id := name
	for n := 1; ; n++ {
		err := os.Mkdir(filepath.Join(s.baseDir, id), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, err
		}
		id = fmt.Sprintf("%s-%d", name, n)
	}

	t := &Trial{ID: id, Dir: filepath.Join(s.baseDir, id)}
	for _, d := range []string{snapshotDir, movieDir, histogramDir} {
		if err := os.MkdirAll(t.path(d), 0755); err != nil {
			return nil, err
		}
	}
	if err := config.Save(t.path(configFile), cfg); err != nil {
		return nil, err
	}

	now := time.Now()
	meta := &Metadata{
		ID:         id,
		Force:      cfg.Force,
		Integrator: cfg.Integrator,
		Created:    now,
		Updated:    now,
		Status:     StatusCreated,
		Seed:       cfg.Seed,
		Particles:  cfg.NParticles,
		Dt:         cfg.Dt,
		EndTime:    cfg.EndTime,
		Params:     cfg.Params,
	}
	if err := t.WriteMetadata(meta); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) Open(id string) (*Trial, error) {
	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &Trial{ID: id, Dir: dir}, nil
}

// List returns the metadata of every readable trial, oldest first.
func (s *Store) List() ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	runs := make([]Metadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		t := &Trial{ID: entry.Name(), Dir: filepath.Join(s.baseDir, entry.Name())}
		meta, err := t.Metadata()
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Created.Before(runs[j].Created) })
	return runs, nil
}

func (s *Store) Load(id string) (*Metadata, error) {
	t, err := s.Open(id)
	if err != nil {
		return nil, err
	}
	return t.Metadata()
}

func (t *Trial) Metadata() (*Metadata, error) {
	data, err := os.ReadFile(t.path(metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", t.path(metadataFile), err, sim.ErrInput)
	}
	return &meta, nil
}

func (t *Trial) WriteMetadata(meta *Metadata) error {
	f, err := os.Create(t.path(metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// UpdateMetadata applies fn to the stored metadata and writes it back.
func (t *Trial) UpdateMetadata(fn func(*Metadata)) error {
	meta, err := t.Metadata()
	if err != nil {
		return err
	}
	fn(meta)
	meta.Updated = time.Now()
	return t.WriteMetadata(meta)
}

func (t *Trial) Config() (*config.Config, error) {
	return config.Load(t.path(configFile))
}

func (t *Trial) SaveConfig(cfg *config.Config) error {
	return config.Save(t.path(configFile), cfg)
}
