package main

import (
	"fmt"

	"github.com/matsen/bibup/internal/config"
	"github.com/matsen/bibup/internal/doi"
)

// newLookupClient builds the lookup client from global configuration.
func newLookupClient() *doi.Client {
	var opts []doi.ClientOption

	ua := "bibup/" + Version
	if mailto := config.GetMailto(); mailto != "" {
		ua = fmt.Sprintf("bibup/%s (mailto:%s)", Version, mailto)
	}
	opts = append(opts, doi.WithUserAgent(ua))

	cfg, _ := config.LoadGlobalConfig()
	if cfg.DOI2BibURL != "" {
		opts = append(opts, doi.WithDOI2BibBase(cfg.DOI2BibURL))
	}
	if cfg.CrossRefURL != "" {
		opts = append(opts, doi.WithCrossRefBase(cfg.CrossRefURL))
	}
	if cfg.ArxivURL != "" {
		opts = append(opts, doi.WithArxivBase(cfg.ArxivURL))
	}

	return doi.NewClient(opts...)
}
