package controller

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	m "settingsync.dev/pkg/settingsync/internal/model"
)

// RenderPackages writes the package inventory as a table.
func RenderPackages(w io.Writer, packages []m.Package) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Version", "Kind", "Source"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	themes := 0

	for _, p := range packages {
		source := "registry"
		if p.InstallSource != nil {
			source = p.InstallSource.Source
		}

		if p.Theme {
			themes++
		}

		table.Append([]string{p.Name, p.Version, p.Kind(), source})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(packages)),
		"",
		fmt.Sprintf("%d themes", themes),
		"",
	})

	table.Render()
}
