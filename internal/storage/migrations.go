package storage

func (s *SQLiteStorage) migrate() error {
	schema := `
    CREATE TABLE IF NOT EXISTS sensor_readings (
        id INTEGER PRIMARY KEY,
        created_at INTEGER NOT NULL,
        temperature_c REAL,
        humidity REAL,
        soil_moisture REAL
    );

    CREATE INDEX IF NOT EXISTS idx_readings_created_at
        ON sensor_readings(created_at);
    `

	_, err := s.db.Exec(schema)
	return err
}
