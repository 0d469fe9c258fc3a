package utils

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"
)

type GeoLocation struct {
	Country string
	City    string
	Lat     float64
	Lon     float64
}

// GeoResolver resolves IPs to locations via a local MaxMind database with
// an ip-api.com HTTP fallback. Lookups are memoized per IP; failures are
// never fatal and return zero values.
type GeoResolver struct {
	db         *geoip2.Reader
	httpClient *http.Client
	cache      sync.Map // map[string]GeoLocation
}

// NewGeoResolver never fails: if the database can't be loaded it falls
// back to API-only mode.
func NewGeoResolver(dbPath string) (*GeoResolver, error) {
	var db *geoip2.Reader

	if dbPath != "" {
		var err error
		db, err = geoip2.Open(dbPath)
		if err != nil {
			fmt.Printf("Warning: Could not open GeoIP database at %s: %v. Using API fallback only.\n", dbPath, err)
			db = nil
		}
	}

	return &GeoResolver{
		db: db,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Lookup is safe on a nil receiver; enrichment must not fail the batch.
func (g *GeoResolver) Lookup(ipStr string) (string, string, float64, float64) {
	if g == nil {
		return "", "", 0, 0
	}

	if val, ok := g.cache.Load(ipStr); ok {
		loc := val.(GeoLocation)
		return loc.Country, loc.City, loc.Lat, loc.Lon
	}

	var loc GeoLocation
	var found bool

	if g.db != nil {
		ip := net.ParseIP(ipStr)
		if ip != nil {
			record, err := g.db.City(ip)
			if err == nil {
				loc = GeoLocation{
					Country: record.Country.Names["en"],
					City:    record.City.Names["en"],
					Lat:     record.Location.Latitude,
					Lon:     record.Location.Longitude,
				}
				found = true
			}
		}
	}

	if !found {
		apiLoc, err := g.fetchFromAPI(ipStr)
		if err == nil {
			loc = *apiLoc
			found = true
		}
	}

	if !found {
		// Cache the miss too, so unreachable IPs aren't re-queried every cycle.
		loc = GeoLocation{}
	}

	g.cache.Store(ipStr, loc)
	return loc.Country, loc.City, loc.Lat, loc.Lon
}

type ipApiResponse struct {
	Country string  `json:"country"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Status  string  `json:"status"`
}

func (g *GeoResolver) fetchFromAPI(ip string) (*GeoLocation, error) {
	url := fmt.Sprintf("http://ip-api.com/json/%s", ip)
	resp, err := g.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error: %d", resp.StatusCode)
	}

	var apiResp ipApiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}

	if apiResp.Status == "fail" {
		return nil, fmt.Errorf("api returned fail status")
	}

	return &GeoLocation{
		Country: apiResp.Country,
		City:    apiResp.City,
		Lat:     apiResp.Lat,
		Lon:     apiResp.Lon,
	}, nil
}
