package bundle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingConfig is returned when a required bundle field is empty
	ErrMissingConfig = errors.New("missing bundle configuration")
	// ErrScriptLoad is returned when the bundle could not be fetched
	ErrScriptLoad = errors.New("failed to load player bundle")
	// ErrBundleConflict is returned when a bundle with a different URL than the injected one is requested
	ErrBundleConflict = errors.New("a different player bundle is already loaded")
)

// Config identifies one player bundle.  KS is an optional credential handed to the players, it does not change
// the bundle URL.
type Config struct {
	BundlerURL string
	PartnerID  string
	UIConfID   string
	KS         string
}

// Validate reports which required fields are missing
func (c Config) Validate() error {
	var missing []string
	if c.BundlerURL == "" {
		missing = append(missing, "bundler url")
	}
	if c.PartnerID == "" {
		missing = append(missing, "partner id")
	}
	if c.UIConfID == "" {
		missing = append(missing, "ui conf id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// URL returns the address of the bundle script
func (c Config) URL() string {
	return fmt.Sprintf("%s/p/%s/embedPlaykitJs/uiconf_id/%s", strings.TrimRight(c.BundlerURL, "/"), c.PartnerID, c.UIConfID)
}

// Status is the load state of the bundle
type Status int

const (
	StatusInitial Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusInitial:
		return "Initial"
	case StatusLoading:
		return "Loading"
	case StatusLoaded:
		return "Loaded"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Terminal reports whether the status can no longer change
func (s Status) Terminal() bool {
	return s == StatusLoaded || s == StatusError
}

// Result is a status together with the reason for StatusError
type Result struct {
	Status Status
	Err    error
}
