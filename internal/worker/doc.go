// Package worker выполняет планы actions.
//
// # Обзор
//
// Runner получает развёрнутый план (domain.ExecutionPlan) и выполняет
// его шаги последовательно. Каждый шаг — pipeline командных строк,
// каждая строка запускается как "/bin/bash -c <line>" в рабочей
// директории процесса.
//
// # Fail-fast
//
// Runner — автомат с двумя состояниями:
//
//	RUNNING → FAILED
//
// Пока состояние RUNNING, шаги выполняются. Первая упавшая команда
// переводит run в FAILED: оставшиеся строки action не запускаются,
// оставшиеся шаги логируются как пропущенные и помечаются SKIPPED.
// Повторных попыток нет.
//
// # Выполнение команд
//
// CommandExecutor запускает одну строку. ShellExecutor наследует
// stdout/stderr процесса сервера, вывод команд не перехватывается.
//
//	runner := worker.New(worker.Config{
//	    Executor: worker.NewShellExecutor("/bin/bash"),
//	    Recorder: store,
//	    Logger:   logger,
//	})
//	go runner.Run(ctx, run, plan)
//
// # Запись истории
//
// Если задан RunRecorder, run сохраняется при старте и обновляется
// после каждого шага. Ошибки записи логируются и на выполнение
// не влияют.
package worker
