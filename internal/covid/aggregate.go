package covid

import "sort"

// AggregateCountries builds one CountryRecord per distinct country found in
// the global tables. Each metric is the sum, over the country's rows, of the
// value at the table's latest date. A country absent from a table gets zero
// for that metric. deaths and recovered may be nil.
func AggregateCountries(confirmed, deaths, recovered *MetricTable, iso ISOTable) []CountryRecord {
	var order []string
	byCountry := make(map[string]*CountryRecord)

	add := func(t *MetricTable, set func(r *CountryRecord, v int64)) {
		if t == nil {
			return
		}
		for _, row := range t.Rows {
			name := row.Region.Country
			rec, ok := byCountry[name]
			if !ok {
				rec = &CountryRecord{Location: name}
				byCountry[name] = rec
				order = append(order, name)
			}
			set(rec, row.Latest())
		}
	}

	add(confirmed, func(r *CountryRecord, v int64) { r.Confirmed += v })
	add(deaths, func(r *CountryRecord, v int64) { r.Deaths += v })
	add(recovered, func(r *CountryRecord, v int64) { r.Recovered += v })

	records := make([]CountryRecord, 0, len(order))
	for _, name := range order {
		rec := byCountry[name]
		rec.Active = activeCases(rec.Confirmed, rec.Deaths, rec.Recovered)
		rec.ISO2, _ = iso.Lookup(name)
		records = append(records, *rec)
	}

	// Most confirmed first; ties by name so identical input yields identical order.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Confirmed != records[j].Confirmed {
			return records[i].Confirmed > records[j].Confirmed
		}
		return records[i].Location < records[j].Location
	})
	return records
}

// ComputeTotals sums every record field-wise.
func ComputeTotals(records []CountryRecord) GlobalTotals {
	var t GlobalTotals
	for _, r := range records {
		t.Confirmed += r.Confirmed
		t.Deaths += r.Deaths
		t.Recovered += r.Recovered
		t.Active += r.Active
	}
	return t
}

// activeCases clamps at zero: reporting lag can leave confirmed below
// deaths+recovered.
func activeCases(confirmed, deaths, recovered int64) int64 {
	active := confirmed - deaths - recovered
	if active < 0 {
		return 0
	}
	return active
}
