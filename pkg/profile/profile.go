// Package profile persists named parameter profiles on the DCM side.
//
// A profile is one YAML file per name holding a mode and a full parameter
// set. The implanted device never stores profiles; the DCM owns patient
// record persistence and programs the device parameter by parameter.
package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/openpacer/pacer-go/pkg/params"
)

// Profile is a named parameter set.
type Profile struct {
	// Name identifies the profile; it is also the file name.
	Name string `yaml:"name"`

	// SavedAt is when the profile was last written.
	SavedAt time.Time `yaml:"saved_at"`

	// Mode is the pacing mode name.
	Mode string `yaml:"mode"`

	// Parameters maps canonical field names to values.
	Parameters map[string]float64 `yaml:"parameters"`
}

// FromSnapshot builds a profile from a device parameter snapshot.
func FromSnapshot(name string, snap params.Snapshot) *Profile {
	values := make(map[string]float64, len(snap.Values))
	for f, v := range snap.Values {
		values[f.String()] = v
	}
	return &Profile{
		Name:       name,
		Mode:       snap.Mode.String(),
		Parameters: values,
	}
}

// Validate checks the profile against the device's declared value sets, so
// a profile that saves cleanly will also program cleanly.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile has no name")
	}
	if _, err := params.ParseMode(p.Mode); err != nil {
		return err
	}

	order, err := replayOrder(p.Parameters)
	if err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}

	// Replaying the writes through a scratch store applies the same bounds,
	// steps, and cross-field constraints the device would. The scratch store
	// starts at the power-on defaults, so a rate limit can trip the LRL <= URL
	// cross-check purely because of where it lands in the replay; constraint
	// rejections are retried once after the rest of the profile is in, the
	// same two-pass order the DCM uses when programming a device.
	scratch := params.NewStore()
	var retry []params.Field
	for _, field := range order {
		if err := scratch.Write(field, p.Parameters[field.String()]); err != nil {
			if errors.Is(err, params.ErrConstraint) {
				retry = append(retry, field)
				continue
			}
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	for _, field := range retry {
		if err := scratch.Write(field, p.Parameters[field.String()]); err != nil {
			return fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return nil
}

// replayOrder returns the profile's fields in a fixed replay order: the
// upper rate limit first, then the remaining fields in declaration order.
// Map iteration order must never decide whether a profile validates.
func replayOrder(values map[string]float64) ([]params.Field, error) {
	for name := range values {
		if _, err := params.ParseField(name); err != nil {
			return nil, err
		}
	}

	order := make([]params.Field, 0, len(values))
	if _, ok := values[params.FieldUpperRateLimit.String()]; ok {
		order = append(order, params.FieldUpperRateLimit)
	}
	for _, f := range params.AllFields() {
		if f == params.FieldUpperRateLimit {
			continue
		}
		if _, ok := values[f.String()]; ok {
			order = append(order, f)
		}
	}
	return order, nil
}

// Store reads and writes profiles in a directory, one YAML file each.
type Store struct {
	mu  sync.Mutex
	dir string
}

// NewStore creates a profile store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save validates and writes a profile.
func (s *Store) Save(p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	p.SavedAt = time.Now()
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(p.Name), data, 0644)
}

// Load reads a profile by name.
func (s *Store) Load(name string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, err
	}

	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %q: %w", name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the names of all stored profiles.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	return names, nil
}

// Delete removes a stored profile. Deleting a missing profile is not an
// error.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}
