package engine

import (
	"runtime"
	"sort"
	"sync"

	"fgdefs/internal/models"
)

// Aggregate summarises the loaded table: per trait the group count of each
// distinct value, per property min/max/mean. Properties are reduced in parallel.
func (d *Definitions) Aggregate() *models.Summary {
	data := &models.Summary{
		EntityCount: d.rows,
		Traits:      make([]models.TraitSummary, 0, len(d.traits.values)),
		Properties:  make([]models.PropertySummary, 0, len(d.properties.values)),
	}

	// 1. Traits: partition cell sizes straight from the inverted index
	for _, name := range d.traits.Names() {
		ts := models.TraitSummary{Name: name}
		for value := range d.traits.index[name] {
			ts.Values = append(ts.Values, models.ValueCount{Value: value, Count: d.traits.count(name, value)})
		}
		sort.Slice(ts.Values, func(i, j int) bool {
			if ts.Values[i].Count != ts.Values[j].Count {
				return ts.Values[i].Count > ts.Values[j].Count
			}
			return ts.Values[i].Value < ts.Values[j].Value
		})
		if ts.Values == nil {
			ts.Values = []models.ValueCount{}
		}
		data.Traits = append(data.Traits, ts)
	}

	// 2. Properties: fan out one column per job
	names := d.properties.Names()
	numWorkers := runtime.NumCPU()
	if numWorkers > len(names) {
		numWorkers = len(names)
	}

	jobs := make(chan int)
	results := make([]models.PropertySummary, len(names))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = reduceColumn(names[i], d.properties.values[names[i]])
			}
		}()
	}
	for i := range names {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	data.Properties = append(data.Properties, results...)
	return data
}

func reduceColumn(name string, vals []float64) models.PropertySummary {
	ps := models.PropertySummary{Name: name}
	if len(vals) == 0 {
		return ps
	}
	ps.Min, ps.Max = vals[0], vals[0]
	var sum float64
	for _, v := range vals {
		if v < ps.Min {
			ps.Min = v
		}
		if v > ps.Max {
			ps.Max = v
		}
		sum += v
	}
	ps.Mean = sum / float64(len(vals))
	return ps
}
