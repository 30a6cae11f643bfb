package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dunamismax/webpwizard/internal/domain"
)

// parseCrop reads "x,y,w,h".
func parseCrop(s string) (domain.CropRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.CropRect{}, fmt.Errorf("%w: want x,y,w,h, got %q", domain.ErrInvalidCrop, s)
	}
	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return domain.CropRect{}, fmt.Errorf("%w: %q: %v", domain.ErrInvalidCrop, p, err)
		}
		vals[i] = v
	}
	crop := domain.CropRect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if err := crop.Validate(); err != nil {
		return domain.CropRect{}, err
	}
	return crop, nil
}

// parseChromaFlags resolves --remove-color and --tolerance. A tolerance of 0
// means the flag was not given.
func parseChromaFlags(color string, tolerance int, fallback domain.Tolerance) (*domain.RGB, domain.Tolerance, error) {
	level := fallback
	if tolerance != 0 {
		level = domain.Tolerance(tolerance)
	}
	if strings.TrimSpace(color) == "" {
		return nil, level, nil
	}
	c, err := domain.ParseRGB(color)
	if err != nil {
		return nil, 0, err
	}
	if err := level.Validate(); err != nil {
		return nil, 0, err
	}
	return &c, level, nil
}
