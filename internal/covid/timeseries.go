package covid

// Series keep the upstream column order; dates are never re-parsed.

// AssembleGlobal sums every table per date. Dates follow the confirmed table,
// then any date only the other tables carry. Recovered is set only when the
// recovered table is present.
func AssembleGlobal(confirmed, deaths, recovered *MetricTable) []GlobalPoint {
	var dates []string
	seen := make(map[string]bool)
	for _, t := range []*MetricTable{confirmed, deaths, recovered} {
		if t == nil {
			continue
		}
		for _, d := range t.Dates {
			if !seen[d] {
				seen[d] = true
				dates = append(dates, d)
			}
		}
	}

	confirmedByDate := sumByDate(confirmed)
	deathsByDate := sumByDate(deaths)
	recoveredByDate := sumByDate(recovered)

	points := make([]GlobalPoint, 0, len(dates))
	for _, d := range dates {
		p := GlobalPoint{
			Date:      d,
			Confirmed: confirmedByDate[d],
			Deaths:    deathsByDate[d],
		}
		if recovered != nil {
			v := recoveredByDate[d]
			p.Recovered = &v
		}
		points = append(points, p)
	}
	return points
}

func sumByDate(t *MetricTable) map[string]int64 {
	sums := make(map[string]int64)
	if t == nil {
		return sums
	}
	for _, row := range t.Rows {
		for _, p := range row.Points {
			sums[p.Date] += p.Value
		}
	}
	return sums
}

// AssembleCountrySeries groups a global table by country, in order of first
// appearance. Each country's points are the per-date sum of its rows; the rows
// themselves are kept as Regions when the country is split into provinces.
func AssembleCountrySeries(t *MetricTable, iso ISOTable) []CountrySeries {
	if t == nil {
		return nil
	}

	var out []CountrySeries
	pos := make(map[string]int)
	for _, row := range t.Rows {
		name := row.Region.Country
		i, ok := pos[name]
		if !ok {
			code, _ := iso.Lookup(name)
			i = len(out)
			pos[name] = i
			out = append(out, CountrySeries{
				Country: name,
				ISO2:    code,
				Points:  emptyPoints(t.Dates),
			})
		}
		addPoints(out[i].Points, row.Points)
		if row.Region.Province != "" {
			out[i].Regions = append(out[i].Regions, row)
		}
	}
	return out
}

// AssembleUSSeries groups a US county table by state, in order of first
// appearance.
func AssembleUSSeries(t *MetricTable) []StateSeries {
	if t == nil {
		return nil
	}

	var out []StateSeries
	pos := make(map[string]int)
	for _, row := range t.Rows {
		state := row.Region.Province
		i, ok := pos[state]
		if !ok {
			s := StateSeries{
				State:   state,
				Country: row.Region.Country,
				Points:  emptyPoints(t.Dates),
			}
			if row.US != nil {
				s.ISO2 = row.US.ISO2
				s.ISO3 = row.US.ISO3
				s.Code3 = row.US.Code3
			}
			i = len(out)
			pos[state] = i
			out = append(out, s)
		}

		addPoints(out[i].Points, row.Points)
		county := CountySeries{
			Coordinates: row.Region.Coordinates,
			Points:      row.Points,
		}
		if row.US != nil {
			county.Info = *row.US
		}
		out[i].Counties = append(out[i].Counties, county)
	}
	return out
}

func emptyPoints(dates []string) []TimeSeriesPoint {
	points := make([]TimeSeriesPoint, len(dates))
	for i, d := range dates {
		points[i].Date = d
	}
	return points
}

// addPoints adds src into dst; both are aligned on the same table dates.
func addPoints(dst, src []TimeSeriesPoint) {
	for i := range src {
		dst[i].Value += src[i].Value
	}
}
