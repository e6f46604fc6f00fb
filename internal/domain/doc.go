// Package domain models Turkish province weather snapshots built from the
// Open-Meteo forecast and historical archive APIs.
//
// # Data Source
//
// Province reference data (plate code, name, region, centroid) is read from a
// local JSON file of the shape {"provinces": [...]}. Weather data comes from
// Open-Meteo (https://open-meteo.com), CC BY 4.0. Both endpoints accept
// comma-joined latitude and longitude lists and answer with one location
// object per requested coordinate pair, in request order.
//
// # Join Key
//
// The exact province name is the key of every output map. The frontend looks
// provinces up by that string, falling back to ASCII-folded and
// case-insensitive matches (see [LookupName]), so names are never rewritten
// on the way through the pipeline.
//
// # Missing Values
//
// Open-Meteo encodes missing daily samples as JSON null. Series are decoded
// into []*float64 and every aggregate ([Average], [Sum], [Max], [Mode])
// drops nil and non-finite samples from both numerator and denominator.
// An aggregate over no valid samples is nil and serializes as null.
//
// Monthly climatology:
//
//	key:          "YYYY-MM", the first seven characters of the ISO date
//	daysCount:    every daily entry with that prefix, valid or not
//	tempMax/Min:  mean of the daily max/min temperature (°C)
//	tempMean:     mean of the daily mean temperature (°C)
//	precip*:      sum and mean of daily precipitation (mm)
//	windSpeed*:   max and mean of the daily max wind speed (km/h)
//	weather code: most common WMO code, see [Mode] for tie handling
//
// # Risk Scores
//
// Water risk indicators are WRI Aqueduct scores on a 0-5 scale. The combined
// index is a weighted arithmetic mean renormalized over the indicators that
// are present ([WeightedMean]). Scores are bucketed into five ordered bins
// whose upper bounds are exclusive:
//
//	<0.5 Low | <1.0 Low-Med | <2.0 Med-High | <3.0 High | else Ext High
package domain
