// Package engine содержит реестр actions и разрешение зависимостей.
//
// Включает:
//   - registry.go — неизменяемый индекс actions по пути и поиск по trigger
//   - resolver.go — развёртывание before/after в план выполнения
//
// Реестр строится один раз при старте и разделяется между запросами
// без блокировок.
package engine
