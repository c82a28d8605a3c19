package ipp

import (
	"strconv"
	"strings"

	"github.com/OpenPrinting/goipp"

	"github.com/openbips/bips/pkg/wire"
)

type PrinterAttributes struct {
	Name                  string
	Info                  string
	Location              string
	UUID                  string
	State                 PrinterState
	StateReasons          []string
	QueuedJobCount        int
	ColorSupported        bool
	MediaDefault          string
	MediaSupported        []string
	MediaTypeSupported    []string
	SidesSupported        []string
	IPPVersionsSupported  []string
	OperationsSupported   []goipp.Op
	PageDeliverySupported []string
}

// mediaSizeIDs maps PWG media size keywords to the compact size
// identifiers used on the wire. Unknown keywords are skipped.
var mediaSizeIDs = map[string]int{
	"na_letter_8.5x11in":       2,
	"na_legal_8.5x14in":        3,
	"na_executive_7.25x10.5in": 4,
	"iso_a3_297x420mm":         6,
	"iso_a4_210x297mm":         26,
	"iso_a5_148x210mm":         25,
	"jis_b4_257x364mm":         12,
	"jis_b5_182x257mm":         13,
	"na_ledger_11x17in":        11,
	"na_index-4x6_4x6in":       74,
	"na_index-5x8_5x8in":       75,
	"na_number-10_4.125x9.5in": 20,
	"iso_dl_110x220mm":         90,
}

// mediaTypeIDs maps PWG media type keywords to wire type identifiers.
var mediaTypeIDs = map[string]int{
	"stationery":              0,
	"auto":                    0,
	"special":                 1,
	"photographic":            2,
	"photographic-glossy":     2,
	"photographic-high-gloss": 2,
	"photographic-matte":      2,
	"photographic-semi-gloss": 2,
}

// Capabilities converts the reported attributes into the wire form,
// bound to the endpoint the attributes were fetched from.
func (a *PrinterAttributes) Capabilities(path string) *wire.PrinterCapabilities {
	caps := &wire.PrinterCapabilities{
		Path:         path,
		Name:         a.Name,
		UUID:         a.UUID,
		Location:     a.Location,
		Supported:    true,
		Color:        a.ColorSupported,
		MediaDefault: a.MediaDefault,
	}

	if caps.Name == "" {
		caps.Name = a.Info
	}

	for _, v := range a.IPPVersionsSupported {
		major, _, _ := strings.Cut(v, ".")
		if n, err := strconv.Atoi(major); err == nil && n > caps.IPPVersionMajor {
			caps.IPPVersionMajor = n
		}
		if _, minor, ok := strings.Cut(v, "."); ok {
			if n, err := strconv.Atoi(minor); err == nil && n > caps.IPPVersionMinor {
				caps.IPPVersionMinor = n
			}
		}
	}

	// Anything below IPP/1.x cannot run the job protocol.
	if caps.IPPVersionMajor < 1 {
		caps.Supported = false
	}

	for _, s := range a.SidesSupported {
		if s == "two-sided-long-edge" {
			caps.Duplex = true
		}
	}

	for _, m := range a.MediaSupported {
		if strings.Contains(m, "_borderless_") {
			caps.Borderless = true
		}
		if id, ok := mediaSizeIDs[m]; ok && !containsInt(caps.SupportedMediaSizes, id) {
			caps.SupportedMediaSizes = append(caps.SupportedMediaSizes, id)
		}
	}

	for _, m := range a.MediaTypeSupported {
		if id, ok := mediaTypeIDs[m]; ok && !containsInt(caps.SupportedMediaTypes, id) {
			caps.SupportedMediaTypes = append(caps.SupportedMediaTypes, id)
		}
	}

	return caps
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
