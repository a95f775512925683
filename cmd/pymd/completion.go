package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-pymd/internal/assets"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --plots-dir
	Short    string   // -w (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	TakesFiles  bool   // accepts file arguments
	FilePattern string // glob for file arguments
	Args        []string
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSet.
type completionMeta struct {
	Values   []string // enum values
	FileGlob string   // file glob pattern
	IsDir    bool     // directory completion
}

// flagCompletionMeta maps flag names to their completion metadata.
func flagCompletionMeta() map[string]completionMeta {
	return map[string]completionMeta{
		"log-format": {Values: []string{"text", "json"}},
		"style":      {Values: assets.Available()},
		"config":     {FileGlob: "*.yaml,*.yml"},
		"plots-dir":  {IsDir: true},
	}
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	meta := flagCompletionMeta()
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if m, ok := meta[f.Name]; ok {
			switch {
			case len(m.Values) > 0:
				fd.Type = flagEnum
				fd.Values = m.Values
			case m.FileGlob != "":
				fd.Type = flagFile
				fd.FileGlob = m.FileGlob
			case m.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Compile flags are extracted from the actual FlagSet.
func getCommands() []commandDef {
	compileDefs := extractFlagsFromFlagSet(newCompileFlagSet(&compileFlags{}))

	return []commandDef{
		{
			Name:        "compile",
			Desc:        "Run python fragments and write <name>.md",
			Flags:       compileDefs,
			TakesFiles:  true,
			FilePattern: "*.pymd",
		},
		{
			Name: "doctor",
			Desc: "Check the Python, matplotlib, and Chrome setup",
			Flags: []flagDef{
				{Long: "json", Type: flagBool, Desc: "print results as JSON"},
				{Long: "python", Type: flagString, Desc: "python executable to check"},
				{Long: "config", Short: "c", Type: flagFile, FileGlob: "*.yaml,*.yml", Desc: "config file name or path"},
			},
		},
		{
			Name: "config",
			Desc: "Print the effective configuration",
			Flags: []flagDef{
				{Long: "config", Short: "c", Type: flagFile, FileGlob: "*.yaml,*.yml", Desc: "config file name or path"},
			},
		},
		{
			Name: "completion",
			Desc: "Generate shell completion script",
			Args: []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)},
		},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
	}
}

// commandNames returns the sorted command names.
func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = generateBash(getCommands())
	case ShellZsh:
		script = generateZsh(getCommands())
	case ShellFish:
		script = generateFish(getCommands())
	case ShellPowerShell:
		script = generatePowerShell(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

// generateBash builds a bash completion function. Documents are completed
// for the first word too, since compile is the default command.
func generateBash(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# bash completion for pymd\n")
	b.WriteString("_pymd_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	fmt.Fprintf(&b, "    local commands=%q\n\n", strings.Join(commandNames(cmds), " "))

	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	b.WriteString("        COMPREPLY=( $(compgen -W \"${commands}\" -- \"${cur}\") $(compgen -f -X '!*.pymd' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n")
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${prev}\" in\n")
	for _, fd := range uniqueValueFlags(cmds) {
		fmt.Fprintf(&b, "        %s)\n", bashFlagPattern(fd))
		switch fd.Type {
		case flagEnum:
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(fd.Values, " "))
		case flagDir:
			b.WriteString("            COMPREPLY=( $(compgen -d -- \"${cur}\") )\n")
		default:
			b.WriteString("            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n")
		}
		b.WriteString("            return 0\n")
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(c.Args, " "))
		} else if c.Name == "help" {
			b.WriteString("            COMPREPLY=( $(compgen -W \"${commands}\" -- \"${cur}\") )\n")
		} else {
			fmt.Fprintf(&b, "            local flags=%q\n", strings.Join(flagWords(c.Flags), " "))
			b.WriteString("            if [[ \"${cur}\" == -* ]]; then\n")
			b.WriteString("                COMPREPLY=( $(compgen -W \"${flags}\" -- \"${cur}\") )\n")
			if c.TakesFiles {
				b.WriteString("            else\n")
				b.WriteString("                COMPREPLY=( $(compgen -f -X '!*.pymd' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n")
			}
			b.WriteString("            fi\n")
		}
		b.WriteString("            ;;\n")
	}
	// A document given without a command: complete compile flags.
	b.WriteString("        *)\n")
	fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"${cur}\") $(compgen -f -X '!*.pymd' -- \"${cur}\") )\n",
		strings.Join(flagWords(cmds[0].Flags), " "))
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -o filenames -F _pymd_completions pymd\n")
	return b.String()
}

// generateZsh builds a zsh completion function.
func generateZsh(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("#compdef pymd\n\n")
	b.WriteString("_pymd() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        _files -g '*.pymd'\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    case \"${words[2]}\" in\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		b.WriteString("            _arguments \\\n")
		for _, fd := range c.Flags {
			fmt.Fprintf(&b, "                %s \\\n", zshFlagSpec(fd))
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "                '1:shell:(%s)'\n", strings.Join(c.Args, " "))
		case c.Name == "help":
			b.WriteString("                '1:command:_describe command commands'\n")
		case c.TakesFiles:
			b.WriteString("                '*:document:_files -g \"*.pymd\"'\n")
		default:
			b.WriteString("                && return\n")
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("        *)\n")
	b.WriteString("            _arguments \\\n")
	for _, fd := range cmds[0].Flags {
		fmt.Fprintf(&b, "                %s \\\n", zshFlagSpec(fd))
	}
	b.WriteString("                '*:document:_files -g \"*.pymd\"'\n")
	b.WriteString("            ;;\n")
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _pymd pymd\n")
	return b.String()
}

// generateFish builds fish completions.
func generateFish(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# fish completion for pymd\n\n")

	b.WriteString("function __fish_pymd_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")

	b.WriteString("function __fish_pymd_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test \"$cmd[2]\" = \"$argv[1]\"\n")
	b.WriteString("end\n\n")

	b.WriteString("complete -c pymd -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c pymd -n __fish_pymd_needs_command -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	b.WriteString("complete -c pymd -n __fish_pymd_needs_command -F -a '(__fish_complete_suffix .pymd)'\n\n")

	for _, c := range cmds {
		cond := "'__fish_pymd_using_command " + c.Name + "'"
		for _, fd := range c.Flags {
			line := "complete -c pymd -n " + cond + " -l " + fd.Long
			if fd.Short != "" {
				line += " -s " + fd.Short
			}
			switch fd.Type {
			case flagEnum:
				line += " -x -a '" + strings.Join(fd.Values, " ") + "'"
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			case flagString, flagInt:
				line += " -x"
			}
			line += " -d '" + fishEscape(fd.Desc) + "'"
			b.WriteString(line + "\n")
		}
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "complete -c pymd -n %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		case c.Name == "help":
			fmt.Fprintf(&b, "complete -c pymd -n %s -a '%s'\n", cond, strings.Join(commandNames(cmds), " "))
		case c.TakesFiles:
			fmt.Fprintf(&b, "complete -c pymd -n %s -F -a '(__fish_complete_suffix .pymd)'\n", cond)
		}
	}
	return b.String()
}

// generatePowerShell builds a PowerShell argument completer.
func generatePowerShell(cmds []commandDef) string {
	var b strings.Builder
	b.WriteString("# PowerShell completion for pymd\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName pymd -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements | ForEach-Object { $_.ToString() }\n")
	b.WriteString("    $command = if ($elements.Count -gt 1) { $elements[1] } else { '' }\n\n")

	b.WriteString("    $commands = @{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' = '%s'\n", c.Name, psEscape(c.Desc))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $flags = @{\n")
	for _, c := range cmds {
		words := flagWords(c.Flags)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = "'" + w + "'"
		}
		fmt.Fprintf(&b, "        '%s' = @(%s)\n", c.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    if ($elements.Count -le 2 -and -not $wordToComplete.StartsWith('-')) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | Sort-Object | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $commands[$_])\n")
	b.WriteString("        }\n")
	b.WriteString("        Get-ChildItem -Filter \"$wordToComplete*.pymd\" | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ProviderItem', $_.Name)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")

	b.WriteString("    if (-not $flags.ContainsKey($command)) { $command = 'compile' }\n")
	b.WriteString("    $flags[$command] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

// flagWords returns "--long" and "-s" forms for every flag.
func flagWords(flags []flagDef) []string {
	var words []string
	for _, fd := range flags {
		words = append(words, "--"+fd.Long)
		if fd.Short != "" {
			words = append(words, "-"+fd.Short)
		}
	}
	return words
}

// uniqueValueFlags returns the flags taking a value, deduplicated by name
// across commands.
func uniqueValueFlags(cmds []commandDef) []flagDef {
	seen := make(map[string]bool)
	var out []flagDef
	for _, c := range cmds {
		for _, fd := range c.Flags {
			if fd.Type == flagBool || seen[fd.Long] {
				continue
			}
			seen[fd.Long] = true
			out = append(out, fd)
		}
	}
	return out
}

// bashFlagPattern returns the case pattern matching a flag's forms.
func bashFlagPattern(fd flagDef) string {
	if fd.Short != "" {
		return "--" + fd.Long + "|-" + fd.Short
	}
	return "--" + fd.Long
}

// zshFlagSpec returns an _arguments spec for a flag.
func zshFlagSpec(fd flagDef) string {
	desc := zshEscape(fd.Desc)
	name := "--" + fd.Long
	if fd.Short != "" {
		name = "{-" + fd.Short + ",--" + fd.Long + "}"
	}

	var action string
	switch fd.Type {
	case flagBool:
		action = ""
	case flagEnum:
		action = ":" + fd.Long + ":(" + strings.Join(fd.Values, " ") + ")"
	case flagFile:
		globs := strings.Split(fd.FileGlob, ",")
		action = ":file:_files -g \"" + strings.Join(globs, "|") + "\""
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":" + fd.Long + ":"
	}

	if fd.Short != "" {
		return name + "'[" + desc + "]" + action + "'"
	}
	return "'" + name + "[" + desc + "]" + action + "'"
}

func zshEscape(s string) string {
	s = strings.ReplaceAll(s, "'", "'\\''")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return strings.ReplaceAll(s, ":", "\\:")
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

func psEscape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pymd completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(pymd completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(pymd completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    pymd completion fish > ~/.config/fish/completions/pymd.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    pymd completion powershell | Out-String | Invoke-Expression")
}
