// Package repo хранит историю выполнений (runs).
//
// Реализации RunStore:
//   - MemoryRunStore — в памяти процесса, для тестов и storage.driver=memory
//   - SQLiteRunStore — встроенная БД (modernc.org/sqlite)
//   - RunRepo        — PostgreSQL (pgx)
//
// Open выбирает реализацию по имени драйвера.
package repo
