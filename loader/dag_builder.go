// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package loader

import (
	"sort"

	"github.com/linuxdeepin/go-lib/log"
)

// DAGBuilder collects the modules to enable with all their dependencies.
type DAGBuilder struct {
	modules         Modules
	enablingModules []string
	disableModules  map[string]struct{}
	flag            EnableFlag

	log *log.Logger

	// module name -> names of the modules depending on it
	edges map[string][]string
	// module name -> number of dependencies
	inDegree map[string]int
	// insertion order of the nodes
	nodes []string
}

func NewDAGBuilder(loader *Loader, enablingModules []string, disableModules []string, flag EnableFlag) *DAGBuilder {
	disableModulesMap := map[string]struct{}{}
	for _, name := range disableModules {
		if _, ok := loader.modules[name]; !ok {
			loader.log.Warningf("disabled module(%s) does not exist", name)
			continue
		}
		disableModulesMap[name] = struct{}{}
	}

	return &DAGBuilder{
		modules:         loader.modules,
		enablingModules: enablingModules,
		disableModules:  disableModulesMap,
		flag:            flag,
		log:             loader.log,
		edges:           make(map[string][]string),
		inDegree:        make(map[string]int),
	}
}

func (builder *DAGBuilder) addNode(name string) bool {
	if _, ok := builder.inDegree[name]; ok {
		return false
	}
	builder.inDegree[name] = 0
	builder.nodes = append(builder.nodes, name)
	return true
}

func (builder *DAGBuilder) buildDAG() error {
	queue := make([]string, 0, len(builder.enablingModules))
	for _, name := range builder.enablingModules {
		if builder.addNode(name) {
			queue = append(queue, name)
		}
	}
	for len(queue) != 0 {
		name := queue[0]
		queue = queue[1:]
		module, ok := builder.modules[name]
		if !ok {
			if builder.flag.HasFlag(EnableFlagIgnoreMissingModule) {
				builder.log.Info("no such a module named", name)
				continue
			}
			return &EnableError{ModuleName: name, Code: ErrorMissingModule}
		}
		if _, ok := builder.disableModules[name]; ok {
			if !builder.flag.HasFlag(EnableFlagForceStart) {
				return &EnableError{ModuleName: name, Code: ErrorConflict}
			}
		}
		for _, dependency := range module.GetDependencies() {
			if builder.addNode(dependency) {
				queue = append(queue, dependency)
			}
			builder.edges[dependency] = append(builder.edges[dependency], name)
			builder.inDegree[name]++
		}
	}
	return nil
}

// topologicalSort orders the nodes so that every module comes after its
// dependencies. ok is false when the dependencies form a cycle.
func (builder *DAGBuilder) topologicalSort() (result []string, ok bool) {
	inDegree := make(map[string]int, len(builder.inDegree))
	var queue []string
	for _, name := range builder.nodes {
		inDegree[name] = builder.inDegree[name]
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) != 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		dependents := append([]string(nil), builder.edges[name]...)
		sort.Strings(dependents)
		for _, dependent := range dependents {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	return result, len(result) == len(builder.nodes)
}

// Execute returns the modules to enable, dependencies first.
func (builder *DAGBuilder) Execute() ([]string, error) {
	err := builder.buildDAG()
	if err != nil {
		return nil, err
	}

	names, ok := builder.topologicalSort()
	if !ok {
		return nil, &EnableError{Code: ErrorCircleDependencies}
	}
	return names, nil
}
