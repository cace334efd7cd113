package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/classreg/pkg/classreg"
	"github.com/mesh-intelligence/classreg/pkg/types"
)

// methodView is the JSON shape of a method listing.
type methodView struct {
	ClassName   string   `json:"class_name"`
	Name        string   `json:"name"`
	Descriptor  string   `json:"descriptor"`
	Signature   string   `json:"signature"`
	AccessFlags uint16   `json:"access_flags"`
	Arguments   []string `json:"arguments"`
	ReturnType  string   `json:"return_type"`
	MaxStack    uint16   `json:"max_stack"`
	MaxLocals   uint16   `json:"max_locals"`
	CodeLength  int      `json:"code_length"`
}

func newMethodView(mg *types.MethodGen) methodView {
	return methodView{
		ClassName:   mg.ClassName,
		Name:        mg.Name(),
		Descriptor:  mg.Descriptor(),
		Signature:   mg.Method.Signature(),
		AccessFlags: uint16(mg.AccessFlags()),
		Arguments:   mg.ArgumentTypes(),
		ReturnType:  mg.ReturnType(),
		MaxStack:    mg.MaxStack(),
		MaxLocals:   mg.MaxLocals(),
		CodeLength:  len(mg.Bytecode()),
	}
}

// classView is the JSON shape of the show command.
type classView struct {
	ClassName      string       `json:"class_name"`
	UnitName       string       `json:"unit_name"`
	Version        string       `json:"version"`
	Modifiers      string       `json:"modifiers"`
	SuperclassName string       `json:"superclass_name,omitempty"`
	Interfaces     []string     `json:"interfaces"`
	SourceFile     string       `json:"source_file,omitempty"`
	Fields         []string     `json:"fields"`
	Methods        []methodView `json:"methods"`
}

// openRegistry creates a registry for path that logs through the app logger.
func (a *app) openRegistry(path string) (types.Registry, error) {
	return classreg.NewRegistry(path, classreg.WithLogger(a.logger))
}

func newClassesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classes <path>",
		Short: "List the classes in a JAR or class file",
		Example: `  classreg classes lib/app.jar
  classreg classes build/Foo.class --json`,
		Args: userArgs(cobra.ExactArgs(1)),
		RunE: a.runClasses,
	}
}

func (a *app) runClasses(cmd *cobra.Command, args []string) error {
	reg, err := a.openRegistry(args[0])
	if err != nil {
		return err
	}
	classes, err := reg.AllClasses()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.ClassName)
	}
	if a.jsonOutput() {
		return printJSON(cmd.OutOrStdout(), names)
	}
	for _, n := range names {
		fmt.Fprintln(cmd.OutOrStdout(), n)
	}
	return nil
}

func newMethodsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "methods <path> [class]",
		Short: "List methods of one class or of every class",
		Long: `Methods lists method signatures in declaration order. With a class name
only that class is listed; otherwise every class in container order.`,
		Example: `  classreg methods lib/app.jar
  classreg methods lib/app.jar com.example.Main`,
		Args: userArgs(cobra.RangeArgs(1, 2)),
		RunE: a.runMethods,
	}
}

func (a *app) runMethods(cmd *cobra.Command, args []string) error {
	reg, err := a.openRegistry(args[0])
	if err != nil {
		return err
	}

	var gens []*types.MethodGen
	if len(args) == 2 {
		gens, err = reg.MethodGensOf(args[1])
	} else {
		gens, err = reg.AllMethodGens()
	}
	if err != nil {
		return err
	}

	if a.jsonOutput() {
		views := make([]methodView, 0, len(gens))
		for _, mg := range gens {
			views = append(views, newMethodView(mg))
		}
		return printJSON(cmd.OutOrStdout(), views)
	}
	for _, mg := range gens {
		if len(args) == 2 {
			fmt.Fprintln(cmd.OutOrStdout(), mg.Method.Signature())
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), mg.String())
	}
	return nil
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "show <path> <class>",
		Short:   "Show the details of one class",
		Example: `  classreg show lib/app.jar com.example.Main`,
		Args:    userArgs(cobra.ExactArgs(2)),
		RunE:    a.runShow,
	}
}

func (a *app) runShow(cmd *cobra.Command, args []string) error {
	reg, err := a.openRegistry(args[0])
	if err != nil {
		return err
	}
	class, err := reg.ClassByName(args[1])
	if err != nil {
		return err
	}
	gens, err := reg.MethodGensOf(args[1])
	if err != nil {
		return err
	}

	view := classView{
		ClassName:      class.ClassName,
		UnitName:       class.UnitName,
		Version:        fmt.Sprintf("%d.%d", class.MajorVersion, class.MinorVersion),
		Modifiers:      class.AccessFlags.ClassModifiers(),
		SuperclassName: class.SuperclassName,
		Interfaces:     append([]string{}, class.Interfaces...),
		SourceFile:     class.SourceFile,
		Fields:         []string{},
		Methods:        make([]methodView, 0, len(gens)),
	}
	for _, f := range class.Fields {
		view.Fields = append(view.Fields, fieldSignature(f))
	}
	for _, mg := range gens {
		view.Methods = append(view.Methods, newMethodView(mg))
	}

	if a.jsonOutput() {
		return printJSON(cmd.OutOrStdout(), view)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", view.Modifiers, view.ClassName)
	fmt.Fprintf(w, "  unit:       %s\n", view.UnitName)
	fmt.Fprintf(w, "  version:    %s\n", view.Version)
	if view.SuperclassName != "" {
		fmt.Fprintf(w, "  extends:    %s\n", view.SuperclassName)
	}
	if len(view.Interfaces) > 0 {
		fmt.Fprintf(w, "  implements: %s\n", strings.Join(view.Interfaces, ", "))
	}
	if view.SourceFile != "" {
		fmt.Fprintf(w, "  source:     %s\n", view.SourceFile)
	}
	fmt.Fprintf(w, "  fields (%d):\n", len(view.Fields))
	for _, f := range view.Fields {
		fmt.Fprintf(w, "    %s\n", f)
	}
	fmt.Fprintf(w, "  methods (%d):\n", len(view.Methods))
	for _, m := range view.Methods {
		fmt.Fprintf(w, "    %s\n", m.Signature)
	}
	return nil
}

// fieldSignature renders a field in source form, for example
// "private static int count".
func fieldSignature(f types.Field) string {
	typ, err := f.Type()
	if err != nil {
		typ = f.Descriptor
	}
	if mods := f.AccessFlags.FieldModifiers(); mods != "" {
		return mods + " " + typ + " " + f.Name
	}
	return typ + " " + f.Name
}
