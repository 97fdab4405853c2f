/*
Copyright (C) 2026  Zeke Medley

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
/*
	risp compiles lisp programs to native code and runs them in process
*/
package main

import "os"
import "fmt"
import "flag"
import "time"
import "syscall"
import "os/signal"
import "crypto/rand"
import "runtime/pprof"
import "github.com/google/uuid"
import "github.com/fsnotify/fsnotify"
import "github.com/ZekeMedley/risp/jit"
import "github.com/ZekeMedley/risp/lisp"
import "github.com/ZekeMedley/risp/compiler"

// workaround for flags package to allow multiple values
type arrayFlags []string

func (i *arrayFlags) String() string {
	return "dummy"
}

func (i *arrayFlags) Set(value string) error {
	*i = append(*i, value)
	return nil
}

var printStats bool

// runSource compiles a whole source unit into a fresh module, runs it
// and returns its printed result. Panics on compile errors; callers
// decide whether that aborts or just prints.
func runSource(source, src string) string {
	program := lisp.ReadAll(source, src)
	m := jit.NewModule(source)
	entry, err := compiler.Compile(program, m)
	if err != nil {
		panic(err)
	}
	result := entry()
	if printStats {
		fmt.Println(m.Stats())
	}
	return lisp.String(lisp.Decode(lisp.Word(result)))
}

func runFile(filename string) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		panic(err)
	}
	runSource(filename, string(bytes))
}

// watchFile runs a file and reruns it whenever it changes on disk.
func watchFile(filename string) {
	rerun := func() {
		defer func() {
			if err := recover(); err != nil {
				// error happens during reload: log to console
				fmt.Println(err)
			}
		}()
		runFile(filename)
	}
	rerun() // run once at the beginning in sync
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		panic(err)
	}
	go func() {
		for {
			select {
			case <-watcher.Events:
				// flush all other events
				for {
					time.Sleep(10 * time.Millisecond) // delay a bit, so we don't read empty files
					select {
					case <-watcher.Events:
						// ignore
					default:
						goto to_rerun
					}
				}
			to_rerun:
				rerun()
				watcher.Add(filename) // text editors rename, so we have to rewatch
			}
		}
	}()
	err = watcher.Add(filename)
	if err != nil {
		panic(err)
	}
}

func main() {
	fmt.Print(`risp Copyright (C) 2026   Zeke Medley
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;

`)

	// init random generator for module UUIDs
	uuid.SetRand(rand.Reader)

	// parse command line options
	var commands arrayFlags
	flag.Var(&commands, "c", "Execute lisp command")

	profile := ""
	flag.StringVar(&profile, "profile", "", "Write CPU profile to file")

	docs := ""
	flag.StringVar(&docs, "docs", "", "Write builtin documentation to folder and exit")

	watch := false
	flag.BoolVar(&watch, "watch", false, "Rerun the given files whenever they change on disk")

	flag.BoolVar(&printStats, "stats", false, "Print module segment statistics after each run")
	flag.BoolVar(&compiler.Settings.Trace, "trace", false, "Write a chrome trace of the compiler passes")
	flag.BoolVar(&compiler.Settings.TracePrint, "traceprint", false, "Print pass durations to stdout")
	flag.BoolVar(&compiler.Settings.Backtrace, "backtrace", false, "Print full stack traces on REPL panics")

	flag.Parse()
	files := flag.Args()

	compiler.InitSettings()

	if docs != "" {
		if err := lisp.WriteDocumentation(docs); err != nil {
			panic(err)
		}
		return
	}

	// init profiling
	if profile != "" {
		f, err := os.Create(profile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	// install exit handler
	cancelChan := make(chan os.Signal, 1)
	signal.Notify(cancelChan, syscall.SIGTERM, syscall.SIGINT)
	go (func() {
		<-cancelChan
		exitroutine()
		os.Exit(1)
	})()

	for _, filename := range files {
		fmt.Println("Loading " + filename + " ...")
		if watch {
			watchFile(filename)
		} else {
			runFile(filename)
		}
	}
	for _, command := range commands {
		fmt.Println("Executing " + command + " ...")
		fmt.Println(runSource("command line", command))
	}

	fmt.Print(`
    Type (help) to show help

`)

	// REPL shell
	lisp.Repl(runSource)

	// normal shutdown
	exitroutine()
}

func exitroutine() {
	fmt.Println("Exit procedure...")
	if lisp.ReplInstance != nil {
		// in case it dosen't exit properly
		lisp.ReplInstance.Close()
	}
	fmt.Println("Exit procedure finished")
}
