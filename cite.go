/*
Copyright © 2021 the TagTools authors.
This file is part of TagTools.

TagTools is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

TagTools is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with TagTools.  If not, see <http://www.gnu.org/licenses/>.
*/

package tagtools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// DOIResolver is the default DOI resolver address.
const DOIResolver = "https://doi.org/"

// Citation formats requested by content negotiation.
const (
	apaFormat    = "text/x-bibliography; style=apa"
	bibtexFormat = "application/x-bibtex"
)

// Citer retrieves citations for digital object identifiers.
type Citer struct {
	// Resolver is the DOI resolver address. It defaults to
	// DOIResolver.
	Resolver string

	Client *http.Client

	// MaxRetries limits the retries of failed requests. Zero means 4.
	MaxRetries uint64

	// InitialInterval is the first retry delay. Zero uses the
	// exponential backoff default.
	InitialInterval time.Duration

	Log logrus.FieldLogger
}

// Citation holds the formatted citations for a DOI.
type Citation struct {
	DOI    string
	APA    string
	BibTeX string
}

// DOINumber strips any resolver address or doi: prefix from doi.
func DOINumber(doi string) string {
	doi = strings.TrimSpace(doi)
	for _, p := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"} {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			return doi[len(p):]
		}
	}
	return doi
}

// DOIURL returns the landing page address of doi.
func DOIURL(doi string) string {
	return DOIResolver + DOINumber(doi)
}

// Cite retrieves the APA and BibTeX citations of doi.
func (c *Citer) Cite(ctx context.Context, doi string) (*Citation, error) {
	num := DOINumber(doi)
	if num == "" {
		return nil, fmt.Errorf("tagtools: no doi given: %w", ErrInvalidArgument)
	}
	o := &Citation{DOI: num}
	var err error
	if o.APA, err = c.get(ctx, num, apaFormat); err != nil {
		return nil, err
	}
	if o.BibTeX, err = c.get(ctx, num, bibtexFormat); err != nil {
		return nil, err
	}
	return o, nil
}

// Cite retrieves the citations of doi using the default resolver.
func Cite(ctx context.Context, doi string) (*Citation, error) {
	return new(Citer).Cite(ctx, doi)
}

func (c *Citer) get(ctx context.Context, doi, accept string) (string, error) {
	resolver := c.Resolver
	if resolver == "" {
		resolver = DOIResolver
	}
	if !strings.HasSuffix(resolver, "/") {
		resolver += "/"
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	log := c.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	retries := c.MaxRetries
	if retries == 0 {
		retries = 4
	}
	eb := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		eb.InitialInterval = c.InitialInterval
	}
	url := resolver + doi

	var body string
	err := backoff.RetryNotify(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Accept", accept)
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			b, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			switch {
			case resp.StatusCode == http.StatusNotFound:
				return backoff.Permanent(fmt.Errorf("tagtools: doi %s: %w", doi, ErrNotFound))
			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return backoff.Permanent(fmt.Errorf("tagtools: doi %s: %s", doi, resp.Status))
			case resp.StatusCode >= 300:
				return fmt.Errorf("tagtools: doi %s: %s", doi, resp.Status)
			}
			body = strings.TrimSpace(string(b))
			return nil
		},
		backoff.WithContext(backoff.WithMaxRetries(eb, retries), ctx),
		func(err error, d time.Duration) {
			log.WithError(err).WithField("doi", doi).Warnf("retrying in %v", d)
		},
	)
	if err != nil {
		return "", err
	}
	return body, nil
}

// OpenDOI opens the landing page of doi in the web browser.
func OpenDOI(doi string) error {
	if DOINumber(doi) == "" {
		return fmt.Errorf("tagtools: no doi given: %w", ErrInvalidArgument)
	}
	return open.Run(DOIURL(doi))
}
