package model

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryLibrary Category = "library"
	CategoryBar     Category = "bar"
	CategoryGym     Category = "gym"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryLibrary, CategoryBar, CategoryGym}

func ParseCategory(raw string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryLibrary:
		return CategoryLibrary, nil
	case CategoryBar:
		return CategoryBar, nil
	case CategoryGym:
		return CategoryGym, nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) DisplayName() string {
	switch c {
	case CategoryLibrary:
		return "Library"
	case CategoryBar:
		return "Bar"
	case CategoryGym:
		return "Gym"
	default:
		return string(c)
	}
}
