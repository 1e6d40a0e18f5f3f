// Package problem содержит иерархическую ошибку Maidono.
//
// Ошибка — tagged variant:
//   - Message  — простое сообщение
//   - Because  — ошибка, вызванная другой ошибкой
//   - At       — ошибка с позицией в конфигурационном файле
//   - Multiple — набор независимых ошибок
//
// Вывод выполняется через интерфейс Printer в двух режимах:
// компактном (DisplayVeryCompact) и подробном (DisplayDetailed).
//
// Report накапливает ошибки пакетной операции (например, загрузки
// каталога) и сворачивает их в одну ошибку.
package problem
