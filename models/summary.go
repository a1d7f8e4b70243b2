/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

// PlacementSummary aggregates the placements of one athlete. Highest and
// Lowest are the numeric maximum and minimum place.
type PlacementSummary struct {
	AthleteID      int64   `bun:"athlete_id" json:"athlete_id"`
	AthleteCode    string  `bun:"athlete_code" json:"athlete_code"`
	FirstName      string  `bun:"first_name" json:"first_name"`
	LastName       string  `bun:"last_name" json:"last_name"`
	Athlete        string  `bun:"-" json:"athlete"`
	Contingent     string  `bun:"contingent" json:"contingent"`
	MediaInfo      string  `bun:"media_info" json:"media_info"`
	Average        float64 `bun:"average" json:"average"`
	Highest        int     `bun:"highest" json:"highest"`
	Lowest         int     `bun:"lowest" json:"lowest"`
	TotalEvents    int     `bun:"total_events" json:"total_events"`
	NumberOfSports int     `bun:"number_of_sports" json:"number_of_sports"`
}
