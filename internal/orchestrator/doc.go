// Package orchestrator принимает webhook и запускает планы.
//
// Dispatcher связывает остальные части сервера:
//   - ищет action по методу и пути запроса (engine.Registry)
//   - проверяет заголовки источника и подпись тела (security)
//   - разрешает план before/after
//   - запускает план в отдельной горутине (worker.Runner)
//
// Ответ на запрос не ждёт выполнения плана.
package orchestrator
