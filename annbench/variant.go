package annbench

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind of the estimator which produced result file
type Kind string

// Supported estimator kinds
const (
	KindPQ  Kind = "pq"
	KindLSH Kind = "lsh"
)

// Distance metrics used by the pq filters during quantization
const (
	MetricEuclidean   = "euclidean"
	MetricMahalanobis = "mahalanobis"
	MetricLSH         = "lsh"
)

const fileExt = ".hdf5"

// Variant describes estimator parameters encoded in the result file name:
// <dataset>_<metric>_<M>_<perm|no_perm>.hdf5 or <dataset>_lsh_<single|total>.hdf5
type Variant struct {
	Dataset string
	Kind    Kind
	Metric  string
	M       int
	Perm    bool
	Total   bool
}

// Label returns short variant name used as the result store key, e.g. E8NP, M16P, LSH_T
func (v Variant) Label() string {
	if v.Kind == KindLSH {
		if v.Total {
			return "LSH_T"
		}
		return "LSH_S"
	}
	perm := "NP"
	if v.Perm {
		perm = "P"
	}
	return fmt.Sprintf("%s%d%s", strings.ToUpper(v.Metric[:1]), v.M, perm)
}

// Suffix returns file name without the dataset prefix
func (v Variant) Suffix() string {
	if v.Kind == KindLSH {
		if v.Total {
			return "lsh_total" + fileExt
		}
		return "lsh_single" + fileExt
	}
	perm := "no_perm"
	if v.Perm {
		perm = "perm"
	}
	return fmt.Sprintf("%s_%d_%s%s", v.Metric, v.M, perm, fileExt)
}

// FileName builds result file name back from the variant
func (v Variant) FileName() string {
	if v.Dataset == "" {
		return v.Suffix()
	}
	return v.Dataset + "_" + v.Suffix()
}

// ParseVariant extracts estimator parameters from the result file name;
// dataset prefix is optional
func ParseVariant(fileName string) (Variant, error) {
	base := strings.TrimSuffix(filepath.Base(fileName), fileExt)
	tokens := strings.Split(base, "_")
	for i, tok := range tokens {
		rest := tokens[i+1:]
		var (
			v   Variant
			err error
		)
		switch tok {
		case MetricEuclidean, MetricMahalanobis:
			v, err = parsePQ(tok, rest)
		case MetricLSH:
			v, err = parseLSH(rest)
		default:
			continue
		}
		if err != nil {
			return Variant{}, fmt.Errorf("%w: %s", err, fileName)
		}
		v.Dataset = strings.Join(tokens[:i], "_")
		return v, nil
	}
	return Variant{}, fmt.Errorf("%w: %s", ErrUnknownVariant, fileName)
}

func parsePQ(metric string, rest []string) (Variant, error) {
	if len(rest) < 2 {
		return Variant{}, ErrUnknownVariant
	}
	m, err := strconv.Atoi(rest[0])
	if err != nil || m <= 0 {
		return Variant{}, ErrUnknownVariant
	}
	v := Variant{Kind: KindPQ, Metric: metric, M: m}
	switch strings.Join(rest[1:], "_") {
	case "perm":
		v.Perm = true
	case "no_perm":
	default:
		return Variant{}, ErrUnknownVariant
	}
	return v, nil
}

func parseLSH(rest []string) (Variant, error) {
	if len(rest) != 1 {
		return Variant{}, ErrUnknownVariant
	}
	v := Variant{Kind: KindLSH, Metric: MetricLSH}
	switch rest[0] {
	case "total":
		v.Total = true
	case "single":
	default:
		return Variant{}, ErrUnknownVariant
	}
	return v, nil
}
