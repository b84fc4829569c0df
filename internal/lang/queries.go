package lang

// Query sources below are grounded in real tree-sitter grammars: node and
// field names match what the grammars actually produce, not invented
// syntax. Each language contributes a Definitions query (one pattern per
// symbol kind, name capture suffixed ".name"), an Imports query, a Calls
// query, and an Inheritance query (extends/implements) where the language
// has one.

const goDefinitions = `
(function_declaration name: (identifier) @function.name) @function
(method_declaration
    receiver: (parameter_list)
    name: (field_identifier) @method.name) @method
(type_spec name: (type_identifier) @struct.name type: (struct_type)) @struct
(type_spec name: (type_identifier) @interface.name type: (interface_type)) @interface
`

const goImports = `(import_spec path: (interpreted_string_literal) @import.path) @import`

const goCalls = `
(call_expression function: (identifier) @call.name)
(call_expression function: (selector_expression field: (field_identifier) @call.name))
`

const tsDefinitions = `
(function_declaration name: (identifier) @function.name) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (type_identifier) @class.name) @class
(interface_declaration name: (type_identifier) @interface.name) @interface
(enum_declaration name: (identifier) @enum.name) @enum
`

const tsImports = `(import_statement source: (string) @import.source) @import`

const tsCalls = `
(call_expression function: (identifier) @call.name)
(call_expression function: (member_expression property: (property_identifier) @call.name))
`

const tsInheritance = `
(class_heritage (extends_clause value: (identifier) @extends.name))
(class_heritage (implements_clause (type_identifier) @implements.name))
`

const jsDefinitions = `
(function_declaration name: (identifier) @function.name) @function
(generator_function_declaration name: (identifier) @function.name) @function
(variable_declarator
    name: (identifier) @function.name
    value: [(arrow_function) (function_expression) (generator_function)]) @function
(method_definition name: (property_identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
`

const jsImports = `(import_statement source: (string) @import.source) @import`

const jsCalls = `
(call_expression function: (identifier) @call.name)
(call_expression function: (member_expression property: (property_identifier) @call.name))
`

const jsInheritance = `(class_heritage (identifier) @extends.name)`

const pyDefinitions = `
(class_definition
    body: (block
        (function_definition name: (identifier) @method.name) @method))
(function_definition name: (identifier) @function.name) @function
(class_definition name: (identifier) @class.name) @class
`

const pyImports = `
(import_statement name: (dotted_name) @import.name)
(import_from_statement name: (dotted_name) @import.name)
`

const pyCalls = `
(call function: (identifier) @call.name)
(call function: (attribute attribute: (identifier) @call.name))
`

const pyInheritance = `
(class_definition superclasses: (argument_list (identifier) @extends.name)) @extends
`

const rustDefinitions = `
(impl_item
    body: (declaration_list
        (function_item name: (identifier) @method.name) @method))
(trait_item
    body: (declaration_list
        (function_item name: (identifier) @method.name) @method))
(function_item name: (identifier) @function.name) @function
(struct_item name: (type_identifier) @struct.name) @struct
(enum_item name: (type_identifier) @enum.name) @enum
(trait_item name: (type_identifier) @interface.name) @interface
`

const rustImports = `(use_declaration) @import`

const rustCalls = `
(call_expression function: (identifier) @call.name)
(call_expression function: (field_expression field: (field_identifier) @call.name))
`

const rustInheritance = `(impl_item trait: (type_identifier) @implements.name) @implements`

const cDefinitions = `
(function_definition
    declarator: (function_declarator
        declarator: (identifier) @function.name)) @function
(struct_specifier name: (type_identifier) @struct.name) @struct
(enum_specifier name: (type_identifier) @enum.name) @enum
`

const cImports = `(preproc_include) @import`

const cCalls = `(call_expression function: (identifier) @call.name)`

const cppDefinitions = `
(function_definition
    declarator: (function_declarator
        declarator: (identifier) @function.name)) @function
(struct_specifier name: (type_identifier) @struct.name) @struct
(enum_specifier name: (type_identifier) @enum.name) @enum
(class_specifier name: (type_identifier) @class.name) @class
(namespace_definition name: (namespace_identifier) @module.name) @module
`

const cppImports = `
(preproc_include) @import
(using_declaration) @import
`

const cppCalls = `
(call_expression function: (identifier) @call.name)
(call_expression function: (field_expression field: (field_identifier) @call.name))
`

const javaDefinitions = `
(method_declaration name: (identifier) @method.name) @method
(constructor_declaration name: (identifier) @method.name) @method
(class_declaration name: (identifier) @class.name) @class
(record_declaration name: (identifier) @class.name) @class
(interface_declaration name: (identifier) @interface.name) @interface
(enum_declaration name: (identifier) @enum.name) @enum
(field_declaration declarator: (variable_declarator name: (identifier) @variable.name)) @variable
`

const javaImports = `(import_declaration) @import`

const javaCalls = `
(method_invocation name: (identifier) @call.name)
(object_creation_expression type: (type_identifier) @call.name)
`

const javaInheritance = `
(superclass (type_identifier) @extends.name)
(super_interfaces (type_list (type_identifier) @implements.name))
`

const phpDefinitions = `
(class_declaration name: (name) @class.name) @class
(interface_declaration name: (name) @interface.name) @interface
(trait_declaration name: (name) @trait.name) @trait
(enum_declaration name: (name) @enum.name) @enum
(function_definition name: (name) @function.name) @function
(method_declaration name: (name) @method.name) @method
`

const phpImports = `(namespace_use_declaration) @import`

const phpCalls = `
(function_call_expression function: (name) @call.name)
(member_call_expression name: (name) @call.name)
`

const phpInheritance = `
(base_clause (name) @extends.name)
(class_interface_clause (name) @implements.name)
`

const rubyDefinitions = `
(method name: (identifier) @method.name) @method
(singleton_method name: (identifier) @method.name) @method
(class name: (constant) @class.name) @class
(module name: (constant) @module.name) @module
`

const rubyImports = `
(call
    method: (identifier) @import.name
    (#match? @import.name "^(require|require_relative)$")) @import
`

const rubyCalls = `(call method: (identifier) @call.name) @call`

const rubyInheritance = `(superclass (scope_resolution) @extends.name)
(superclass (constant) @extends.name)`
