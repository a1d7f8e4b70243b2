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

import "github.com/tomoncle/gamesroster/database"

// Registry returns every table in creation order.
func Registry() *database.ModelRegistry {
	return database.NewModelRegistry(
		database.NewModelAdapter((*User)(nil), 0),
		database.NewModelAdapter((*Sport)(nil), 10),
		database.NewModelAdapter((*Contingent)(nil), 10),
		database.NewModelAdapter((*Coach)(nil), 20),
		database.NewModelAdapter((*Event)(nil), 30),
		database.NewModelAdapter((*Athlete)(nil), 40),
		database.NewModelAdapter((*Placement)(nil), 50),
	)
}

// ForeignKeys are the constraints used when no foreign key file is
// configured. A coach, sport or contingent cannot be deleted while athletes
// refer to it; placements go with their athlete or event.
func ForeignKeys() database.ForeignKeys {
	return database.ForeignKeys{
		{Table: "athletes", Column: "coach_id", ReferenceTable: "coaches", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "athletes", Column: "sport_id", ReferenceTable: "sports", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "athletes", Column: "contingent_id", ReferenceTable: "contingents", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "events", Column: "sport_id", ReferenceTable: "sports", ReferenceColumn: "id", OnDelete: "RESTRICT"},
		{Table: "placements", Column: "athlete_id", ReferenceTable: "athletes", ReferenceColumn: "id", OnDelete: "CASCADE"},
		{Table: "placements", Column: "event_id", ReferenceTable: "events", ReferenceColumn: "id", OnDelete: "CASCADE"},
	}
}
