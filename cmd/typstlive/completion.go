package main

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = fmt.Errorf("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagNumber
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long   string   // --output
	Short  string   // -o (empty if none)
	Type   flagType // completion type
	Desc   string   // help text
	Values []string // for enum flags
	Glob   string   // for file flags
}

// commandDef describes a command for completion.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	Args  flagType // flagFile, flagDir, or flagString for none
	Glob  string   // glob for file arguments
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSets.
type completionMeta struct {
	Values []string // enum values
	Glob   string   // file glob pattern
	IsDir  bool     // directory completion
}

var flagCompletionMeta = map[string]completionMeta{
	"layout": {Values: []string{"horizontal", "vertical"}},
	"format": {Values: []string{"table", "yaml"}},

	"config":       {Glob: "*.yaml"},
	"metrics-file": {Glob: "*.prom"},
	"typst":        {Glob: "*"},
	"output":       {IsDir: true},
	"root":         {IsDir: true},
	"font-path":    {IsDir: true},

	"assets-dir": {IsDir: true},
	"asset-path": {IsDir: true},
}

// extractFlags reads flag definitions from fs and enriches them with
// flagCompletionMeta.
func extractFlags(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "float64":
			fd.Type = flagNumber
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type, fd.Values = flagEnum, meta.Values
			case meta.Glob != "":
				fd.Type, fd.Glob = flagFile, meta.Glob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}
		// watch -o names a file, not a directory.
		if fs.Name() == "watch" && f.Name == "output" {
			fd.Type, fd.Glob = flagFile, "*.svg"
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
func getCommands() []commandDef {
	return []commandDef{
		{Name: "render", Desc: "Compile every preview block to SVG/PNG", Flags: extractFlags(newRenderFlagSet(&renderFlags{})), Args: flagFile, Glob: "*.md"},
		{Name: "watch", Desc: "Recompile a .typ file on every save", Flags: extractFlags(newWatchFlagSet(&watchFlags{})), Args: flagFile, Glob: "*.typ"},
		{Name: "serve", Desc: "Serve docs with live previews", Flags: extractFlags(newServeFlagSet(&serveFlags{})), Args: flagDir},
		{Name: "scan", Desc: "List the preview blocks of a docs tree", Flags: extractFlags(newScanFlagSet(&scanFlags{})), Args: flagDir},
		{Name: "doctor", Desc: "Check typst, Chrome and the environment", Flags: extractFlags(newDoctorFlagSet(&doctorFlags{}))},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command"},
		{Name: "completion", Desc: "Generate shell completion script"},
	}
}

// GenerateCompletion writes a shell completion script to w.
func GenerateCompletion(w io.Writer, shell Shell) error {
	switch shell {
	case ShellBash:
		return generateBash(w, getCommands())
	case ShellZsh:
		return generateZsh(w, getCommands())
	case ShellFish:
		return generateFish(w, getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: typstlive completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells: bash, zsh, fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w, "  Bash:  eval \"$(typstlive completion bash)\"      # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:   eval \"$(typstlive completion zsh)\"       # in ~/.zshrc, after compinit")
	fmt.Fprintln(w, "  Fish:  typstlive completion fish > ~/.config/fish/completions/typstlive.fish")
}

// ---------------------------------------------------------------------------
// Generators
// ---------------------------------------------------------------------------

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}

	b.WriteString("# bash completion for typstlive\n")
	b.WriteString("_typstlive() {\n")
	b.WriteString("    local cur=\"${COMP_WORDS[COMP_CWORD]}\" prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(names, " "))
	b.WriteString("        return\n    fi\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, c := range cmds {
		if c.Name == "help" {
			fmt.Fprintf(&b, "    help)\n        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n        ;;\n", strings.Join(names, " "))
			continue
		}
		if c.Name == "completion" {
			b.WriteString("    completion)\n        COMPREPLY=($(compgen -W \"bash zsh fish\" -- \"$cur\"))\n        ;;\n")
			continue
		}
		if len(c.Flags) == 0 && c.Args == flagString {
			continue
		}

		fmt.Fprintf(&b, "    %s)\n", c.Name)
		b.WriteString("        case \"$prev\" in\n")
		var words []string
		for _, f := range c.Flags {
			opts := "--" + f.Long
			words = append(words, "--"+f.Long)
			if f.Short != "" {
				opts += "|-" + f.Short
				words = append(words, "-"+f.Short)
			}
			switch f.Type {
			case flagEnum:
				fmt.Fprintf(&b, "            %s) COMPREPLY=($(compgen -W %q -- \"$cur\")); return ;;\n", opts, strings.Join(f.Values, " "))
			case flagDir:
				fmt.Fprintf(&b, "            %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", opts)
			case flagFile:
				fmt.Fprintf(&b, "            %s) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n", opts)
			case flagString, flagNumber:
				fmt.Fprintf(&b, "            %s) return ;;\n", opts)
			}
		}
		b.WriteString("        esac\n")
		fmt.Fprintf(&b, "        if [[ \"$cur\" == -* ]]; then\n            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(words, " "))
		switch c.Args {
		case flagFile:
			fmt.Fprintf(&b, "        else\n            COMPREPLY=($(compgen -f -X '!%s' -- \"$cur\") $(compgen -d -- \"$cur\"))\n", c.Glob)
		case flagDir:
			b.WriteString("        else\n            COMPREPLY=($(compgen -d -- \"$cur\"))\n")
		}
		b.WriteString("        fi\n        ;;\n")
	}

	b.WriteString("    esac\n}\n")
	b.WriteString("complete -F _typstlive typstlive\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshEscape escapes text for use inside a single-quoted _arguments spec.
func zshEscape(s string) string {
	r := strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

func zshAction(t flagType, values []string, glob string) string {
	switch t {
	case flagBool:
		return ""
	case flagEnum:
		return ":value:(" + strings.Join(values, " ") + ")"
	case flagDir:
		return ":directory:_files -/"
	case flagFile:
		if glob == "" || glob == "*" {
			return ":file:_files"
		}
		return ":file:_files -g \"" + glob + "\""
	}
	return ":value: "
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("#compdef typstlive\n\n")
	b.WriteString("_typstlive() {\n")
	b.WriteString("    local -a commands\n    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n        _describe 'command' commands\n        return\n    fi\n\n")
	b.WriteString("    local cmd=${words[2]}\n    words=(${words[2,-1]})\n    (( CURRENT-- ))\n\n")
	b.WriteString("    case $cmd in\n")

	for _, c := range cmds {
		switch c.Name {
		case "help":
			b.WriteString("    help)\n        _describe 'command' commands\n        ;;\n")
			continue
		case "completion":
			b.WriteString("    completion)\n        _values 'shell' bash zsh fish\n        ;;\n")
			continue
		}
		if len(c.Flags) == 0 && c.Args == flagString {
			continue
		}

		fmt.Fprintf(&b, "    %s)\n        _arguments -s", c.Name)
		for _, f := range c.Flags {
			action := zshAction(f.Type, f.Values, f.Glob)
			desc := zshEscape(f.Desc)
			if f.Short != "" {
				fmt.Fprintf(&b, " \\\n            '(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
			} else {
				fmt.Fprintf(&b, " \\\n            '--%s[%s]%s'", f.Long, desc, action)
			}
		}
		switch c.Args {
		case flagFile:
			fmt.Fprintf(&b, " \\\n            '*:file:_files -g \"%s\"'", c.Glob)
		case flagDir:
			b.WriteString(" \\\n            '1:directory:_files -/'")
		}
		b.WriteString("\n        ;;\n")
	}

	b.WriteString("    esac\n}\n\n")
	b.WriteString("compdef _typstlive typstlive\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func fishEscape(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}

	b.WriteString("# fish completion for typstlive\n")
	b.WriteString("complete -c typstlive -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c typstlive -n '__fish_use_subcommand' -a %s -d '%s'\n", c.Name, fishEscape(c.Desc))
	}
	fmt.Fprintf(&b, "complete -c typstlive -n '__fish_seen_subcommand_from help' -a '%s'\n", strings.Join(names, " "))
	b.WriteString("complete -c typstlive -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'\n")

	for _, c := range cmds {
		cond := "__fish_seen_subcommand_from " + c.Name
		for _, f := range c.Flags {
			fmt.Fprintf(&b, "complete -c typstlive -n '%s' -l %s", cond, f.Long)
			if f.Short != "" {
				fmt.Fprintf(&b, " -s %s", f.Short)
			}
			switch f.Type {
			case flagEnum:
				fmt.Fprintf(&b, " -x -a '%s'", strings.Join(f.Values, " "))
			case flagDir:
				b.WriteString(" -x -a '(__fish_complete_directories)'")
			case flagFile:
				b.WriteString(" -r -F")
			case flagString, flagNumber:
				b.WriteString(" -x")
			}
			fmt.Fprintf(&b, " -d '%s'\n", fishEscape(f.Desc))
		}
		switch c.Args {
		case flagFile:
			fmt.Fprintf(&b, "complete -c typstlive -n '%s' -F\n", cond)
		case flagDir:
			fmt.Fprintf(&b, "complete -c typstlive -n '%s' -x -a '(__fish_complete_directories)'\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
